package net

import (
	stdnet "net"
	"testing"

	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareLocation(t *testing.T) {
	u, err := ShareLocation("localboard", "10.0.0.7", 8888)
	require.NoError(t, err)
	assert.Equal(t, "localboard://10.0.0.7:8888/", u.String())

	u, err = ShareLocation("https", "board.example", 0)
	require.NoError(t, err)
	assert.Equal(t, "https://board.example/", u.String())

	_, err = ShareLocation("", "x", 1)
	assert.Error(t, err)
}

func TestShareLocationDefaultsHost(t *testing.T) {
	u, err := ShareLocation("localboard", "", 8888)
	require.NoError(t, err)
	assert.NotEmpty(t, u.Hostname())
	assert.Equal(t, "8888", u.Port())
}

func TestAnnouncementFromEntry(t *testing.T) {
	e := &mdns.ServiceEntry{
		Name:       "laptop._localboard._tcp.local.",
		AddrV4:     stdnet.IPv4(192, 168, 1, 5),
		Port:       8888,
		InfoFields: []string{"other=1", "link=localboard://192.168.1.5:8888/?room=abc"},
	}
	a, ok := announcementFrom(e)
	require.True(t, ok)
	assert.Equal(t, "laptop", a.Instance)
	assert.Equal(t, "192.168.1.5:8888", a.Addr)
	assert.Equal(t, "localboard://192.168.1.5:8888/?room=abc", a.Link)

	_, ok = announcementFrom(&mdns.ServiceEntry{Name: "x", InfoFields: []string{"LocalBoard"}})
	assert.False(t, ok)
	_, ok = announcementFrom(nil)
	assert.False(t, ok)
}
