package net

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	"go.uber.org/zap"
)

const serviceType = "_localboard._tcp"

const linkField = "link="

// Announcement is a share link found on the local network.
type Announcement struct {
	Instance string
	Addr     string
	Link     string
}

// Advertise publishes link over mDNS until the returned server is shut down.
// The link travels in a TXT record; nothing else is served.
func Advertise(link string, port int, logger *zap.Logger) (*mdns.Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	service, err := mdns.NewMDNSService(host, serviceType, "", "", port, nil, []string{linkField + link})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service, Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	logger.Info("advertising share link", zap.String("instance", host), zap.String("link", link))
	return server, nil
}

// Browse looks for advertised links for up to timeout and reports each one.
func Browse(ctx context.Context, timeout time.Duration, found func(Announcement)) error {
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if a, ok := announcementFrom(e); ok {
				found(a)
			}
		}
	}()

	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	params.Logger = log.New(io.Discard, "", 0)

	errc := make(chan error, 1)
	go func() { errc <- mdns.Query(params) }()

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
		// the query always ends by its own timeout
		<-errc
	case err = <-errc:
	}
	close(entries)
	<-done
	return err
}

func announcementFrom(e *mdns.ServiceEntry) (Announcement, bool) {
	if e == nil {
		return Announcement{}, false
	}
	a := Announcement{Instance: strings.TrimSuffix(e.Name, "."+serviceType+".local.")}
	if e.AddrV4 != nil && e.Port != 0 {
		a.Addr = fmt.Sprintf("%s:%d", e.AddrV4, e.Port)
	}
	for _, f := range e.InfoFields {
		if strings.HasPrefix(f, linkField) {
			a.Link = strings.TrimPrefix(f, linkField)
		}
	}
	return a, a.Link != ""
}
