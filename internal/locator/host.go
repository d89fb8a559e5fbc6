package locator

import (
	"net"
	"os"
	"strings"
)

// SystemHost resolves the fully qualified name of the local machine.
// The name is looked up once and reused.
type SystemHost struct {
	resolved bool
	fqdn     string
}

// NewSystemHost creates a SystemHost
func NewSystemHost() *SystemHost {
	return &SystemHost{}
}

// FQDN returns the fully qualified host name, or "" if it cannot be determined
func (h *SystemHost) FQDN() string {
	if !h.resolved {
		h.fqdn = lookupFQDN()
		h.resolved = true
	}
	return h.fqdn
}

func lookupFQDN() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}
	if strings.Contains(hostname, ".") {
		return hostname
	}

	cname, err := net.LookupCNAME(hostname)
	if err != nil {
		return hostname
	}
	cname = strings.TrimSuffix(cname, ".")
	if strings.HasPrefix(strings.ToLower(cname), strings.ToLower(hostname)+".") {
		return cname
	}
	return hostname
}

// StaticHost is a fixed host name
type StaticHost string

// FQDN returns the host name
func (h StaticHost) FQDN() string {
	return string(h)
}
