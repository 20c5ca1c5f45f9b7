package net

import (
	"fmt"
	"net"
	"strings"

	"ResearchBoard/internal/logger"
)

const (
	// LinkScheme prefixes share links handed to followers.
	LinkScheme = "researchboard://"
	boardPath  = "/board"
)

// GetOutgoingIP finds the preferred local IP address for the host to share.
func GetOutgoingIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// no route to the internet, look at the interfaces instead
		return getLocalIPFallback()
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}

func getLocalIPFallback() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", fmt.Errorf("failed to list interface addresses: %w", err)
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String(), nil
		}
	}
	logger.Warn("[SHARE] no suitable local IP found, share link only works on this machine")
	return "127.0.0.1", nil
}

// ShareLink is the link a follower passes to join.
func ShareLink(host string, port int) string {
	return fmt.Sprintf("%s%s", LinkScheme, net.JoinHostPort(host, fmt.Sprint(port)))
}

// WebSocketURL turns a share link, a host:port pair or a ws:// URL into the board endpoint.
func WebSocketURL(link string) (string, error) {
	link = strings.TrimSpace(link)
	switch {
	case strings.HasPrefix(link, "ws://"), strings.HasPrefix(link, "wss://"):
		return link, nil
	case strings.HasPrefix(link, LinkScheme):
		link = strings.TrimPrefix(link, LinkScheme)
	}
	link = strings.TrimSuffix(link, "/")
	if _, _, err := net.SplitHostPort(link); err != nil {
		return "", fmt.Errorf("invalid share link %q: %w", link, err)
	}
	return "ws://" + link + boardPath, nil
}
