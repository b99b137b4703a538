// Package applog is a structured logger that fans each record out to
// several destinations at once.
//
// Every logger writes the structured JSON document to a local stream.
// Named channels add more sinks: severity-routed chat notifications, an
// HTTP webhook, the systemd journal or a Kafka topic. Each sink has its own
// severity band; a failing sink never affects the others or the caller.
//
//	log := applog.New(applog.Options{
//		AppName: "svc",
//		Channels: map[string]applog.Channel{
//			"collector": applog.Webhook{URL: "https://logs.example.com/ingest", MinSeverity: record.Warning},
//		},
//	})
//	defer log.Close()
//	log.Warning("disk low")
//	log.Error(map[string]any{"event": "payment_failed", "order": 42})
package applog
