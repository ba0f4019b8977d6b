package edge

import (
	"net"
	"net/http"

	"github.com/relaynet/pushgateway/internal/apierr"
)

// ACL builds the CIDR-allowlist middleware. An empty list allows every
// request (no ACL configured).
func ACL(allowedCIDRs []string) func(http.Handler) http.Handler {
	var nets []*net.IPNet
	for _, raw := range allowedCIDRs {
		_, n, err := net.ParseCIDR(raw)
		if err == nil {
			nets = append(nets, n)
		}
	}

	return func(next http.Handler) http.Handler {
		if len(nets) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			for _, n := range nets {
				if ip != nil && n.Contains(ip) {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, apierr.AccessDenied())
		})
	}
}

func clientIP(r *http.Request) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}
