package net

import (
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"time"

	"github.com/hashicorp/mdns"

	"ResearchBoard/internal/logger"
)

const serviceType = "_researchboard._tcp"

// Peer is a board presenter found on the local network.
type Peer struct {
	Name string
	Addr string // host:port
}

// Advertise announces a shared board under name on port.
func Advertise(name string, port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}
	if name == "" {
		name = host
	}

	service, err := mdns.NewMDNSService(
		name,
		serviceType,
		"",
		"",
		port,
		[]net.IP{firstIPv4()},
		[]string{"ResearchBoard"},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	logger.Info("[SHARE] advertising board", map[string]interface{}{"name": name, "port": port})
	return server, nil
}

// Browse collects presenters answering within timeout. It blocks for the whole timeout.
func Browse(timeout time.Duration) ([]Peer, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	var peers []Peer
	done := make(chan struct{})
	go func() {
		defer close(done)
		seen := make(map[string]bool)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			addr := net.JoinHostPort(e.AddrV4.String(), fmt.Sprint(e.Port))
			if seen[addr] {
				continue
			}
			seen[addr] = true
			peers = append(peers, Peer{Name: e.Name, Addr: addr})
		}
	}()

	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	// the library logs every malformed answer through the std logger
	params.Logger = log.New(io.Discard, "", 0)

	err := mdns.Query(params)
	close(entries)
	<-done
	if err != nil {
		return peers, fmt.Errorf("failed to browse for boards: %w", err)
	}
	return peers, nil
}

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
