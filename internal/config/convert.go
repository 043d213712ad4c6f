package config

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/admin"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/client"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/forward"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/gateway"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/protocol/session"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/samples"
)

func DefaultServerFile() ServerFile {
	gw := gateway.DefaultServiceConfig()
	mq := forward.DefaultMQTTConfig()
	return ServerFile{
		Addr:                   gw.ListenAddr,
		CORSOrigins:            []string{"http://localhost:3000"},
		MaxConcurrentExchanges: gw.MaxConcurrentExchanges,
		AcceptTimeoutMS:        ms(gw.AcceptTimeout),
		ShutdownGraceMS:        ms(gw.ShutdownGrace),
		Session:                sessionFile(gw.Session),
		MQTT: MQTTFile{
			Broker:           "tcp://127.0.0.1:1883",
			ClientID:         mq.ClientID,
			TopicPrefix:      mq.TopicPrefix,
			QoS:              int(mq.QoS),
			ConnectTimeoutMS: ms(mq.ConnectTimeout),
			PublishTimeoutMS: ms(mq.PublishTimeout),
		},
	}
}

func DefaultClientFile() ClientFile {
	c := client.DefaultConfig()
	host, portText, _ := net.SplitHostPort(c.Address)
	port, _ := strconv.Atoi(portText)
	return ClientFile{
		Host:      host,
		Port:      port,
		Source:    samples.DefaultSource,
		DataFile:  samples.DefaultPath,
		TimeoutMS: ms(c.Session.ReadTimeout),
	}
}

func (c ServerFile) ServiceConfig() gateway.ServiceConfig {
	return gateway.ServiceConfig{
		ListenAddr:             strings.TrimSpace(c.Addr),
		MaxConcurrentExchanges: c.MaxConcurrentExchanges,
		AcceptTimeout:          dur(c.AcceptTimeoutMS),
		ShutdownGrace:          dur(c.ShutdownGraceMS),
		Session:                c.Session.toSession(),
	}.WithDefaults()
}

func (c ServerFile) AdminConfig() admin.Config {
	return admin.Config{
		Addr:        strings.TrimSpace(c.AdminAddr),
		CORSOrigins: c.CORSOrigins,
	}
}

// MQTTConfig reports the forwarder settings and whether forwarding is enabled.
func (c ServerFile) MQTTConfig() (forward.MQTTConfig, bool) {
	return forward.MQTTConfig{
		Broker:         strings.TrimSpace(c.MQTT.Broker),
		ClientID:       c.MQTT.ClientID,
		TopicPrefix:    c.MQTT.TopicPrefix,
		QoS:            byte(c.MQTT.QoS),
		Username:       c.MQTT.Username,
		Password:       c.MQTT.Password,
		ConnectTimeout: dur(c.MQTT.ConnectTimeoutMS),
		PublishTimeout: dur(c.MQTT.PublishTimeoutMS),
	}.WithDefaults(), c.MQTT.Enabled
}

// ClientConfig applies one timeout to connect, read and write.
func (c ClientFile) ClientConfig() client.Config {
	timeout := dur(c.TimeoutMS)
	return client.Config{
		Address: net.JoinHostPort(strings.TrimSpace(c.Host), strconv.Itoa(c.Port)),
		Session: session.Config{
			ConnectTimeout: timeout,
			ReadTimeout:    timeout,
			WriteTimeout:   timeout,
			TLS:            c.TLS.toTLS(),
		}.WithDefaults(),
	}
}

func sessionFile(s session.Config) SessionFile {
	return SessionFile{
		ConnectTimeoutMS: ms(s.ConnectTimeout),
		ReadTimeoutMS:    ms(s.ReadTimeout),
		WriteTimeoutMS:   ms(s.WriteTimeout),
		MaxMessageBytes:  s.MaxMessageBytes,
	}
}

func (s SessionFile) toSession() session.Config {
	return session.Config{
		ConnectTimeout:  dur(s.ConnectTimeoutMS),
		ReadTimeout:     dur(s.ReadTimeoutMS),
		WriteTimeout:    dur(s.WriteTimeoutMS),
		MaxMessageBytes: s.MaxMessageBytes,
		TLS:             s.TLS.toTLS(),
	}
}

func (t TLSFile) toTLS() session.TLSConfig {
	return session.TLSConfig{
		Enabled:            t.Enabled,
		CertFile:           strings.TrimSpace(t.CertFile),
		KeyFile:            strings.TrimSpace(t.KeyFile),
		CAFile:             strings.TrimSpace(t.CAFile),
		ServerName:         strings.TrimSpace(t.ServerName),
		InsecureSkipVerify: t.InsecureSkipVerify,
	}
}

func ms(d time.Duration) int {
	return int(d / time.Millisecond)
}

func dur(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
