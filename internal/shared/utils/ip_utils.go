package utils

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// ExtractClientIP lấy IP thật của client.
//
// Khi trustProxyHeaders = true (chạy sau load balancer), thứ tự ưu tiên:
// 1. X-Forwarded-For (IP đầu tiên)
// 2. X-Real-IP
// 3. RemoteAddr
//
// Khi false chỉ dùng RemoteAddr, vì header do client tự đặt được.
func ExtractClientIP(c *gin.Context, trustProxyHeaders bool) string {
	if trustProxyHeaders {
		if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
			clientIP := strings.TrimSpace(strings.Split(xff, ",")[0])
			if isValidIP(clientIP) {
				return clientIP
			}
		}
		if xri := strings.TrimSpace(c.GetHeader("X-Real-IP")); isValidIP(xri) {
			return xri
		}
	}

	remoteAddr := c.Request.RemoteAddr
	ip, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		ip = remoteAddr
	}
	if isValidIP(ip) {
		return ip
	}

	return "127.0.0.1"
}

func isValidIP(ip string) bool {
	return ip != "" && net.ParseIP(ip) != nil
}
