package net

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// GetOutgoingIP finds the preferred local IP address to put in share links.
func GetOutgoingIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// no route to the internet, fall back to checking local interfaces
		return firstIPv4().String(), nil
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}

// firstIPv4 returns the first non-loopback IPv4 of an interface that is up.
func firstIPv4() net.IP {
	ifaces, _ := net.Interfaces()
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.To4()
			}
		}
	}
	return net.IPv4(127, 0, 0, 1)
}

// ShareLocation builds the base URL share links are derived from,
// e.g. localboard://192.168.1.20:8888/. An empty host means the outgoing IP.
func ShareLocation(scheme, host string, port int) (*url.URL, error) {
	if scheme == "" {
		return nil, fmt.Errorf("share scheme required")
	}
	if host == "" {
		ip, err := GetOutgoingIP()
		if err != nil {
			return nil, err
		}
		host = ip
	}
	if port > 0 {
		host = net.JoinHostPort(host, strconv.Itoa(port))
	}
	return &url.URL{Scheme: scheme, Host: host, Path: "/"}, nil
}
