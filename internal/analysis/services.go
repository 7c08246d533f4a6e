package analysis

import "strconv"

type service struct {
	name string
	tls  bool
}

// Well-known TCP server ports. The capture filter only sees TCP, so UDP
// services are left out.
var services = map[int]service{
	21:   {name: "FTP"},
	22:   {name: "SSH", tls: true},
	25:   {name: "SMTP"},
	53:   {name: "DNS"},
	80:   {name: "HTTP"},
	110:  {name: "POP3"},
	143:  {name: "IMAP"},
	443:  {name: "HTTPS", tls: true},
	465:  {name: "SMTPS", tls: true},
	587:  {name: "Submission"},
	853:  {name: "DoT", tls: true},
	993:  {name: "IMAPS", tls: true},
	995:  {name: "POP3S", tls: true},
	1883: {name: "MQTT"},
	3306: {name: "MySQL"},
	5222: {name: "XMPP"},
	5432: {name: "PostgreSQL"},
	6379: {name: "Redis"},
	8080: {name: "HTTP-Alt"},
	8443: {name: "HTTPS-Alt", tls: true},
	8883: {name: "MQTTS", tls: true},
}

// ServiceName names a server port, falling back to the number.
func ServiceName(port int) string {
	if s, ok := services[port]; ok {
		return s.name
	}
	return strconv.Itoa(port)
}

// Encrypted reports whether traffic to port is normally encrypted, so
// payload sizes are all the dashboard can show.
func Encrypted(port int) bool {
	return services[port].tls
}
