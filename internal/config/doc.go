// Package config loads reactor.json, the configuration of the reactor
// command.
//
// # Configuration File Structure
//
//	{
//	  "maxUpdateCount": 100,
//	  "logLevel": "info",
//	  "strictBackend": false,
//	  "serve": {
//	    "addr": ":8080",
//	    "metricsPath": "/metrics",
//	    "tickInterval": "2s",
//	    "writeTimeout": "10s"
//	  },
//	  "stream": {
//	    "historySize": 256,
//	    "clientBuffer": 64
//	  },
//	  "archive": {
//	    "dir": ".reactor/archive",
//	    "s3Bucket": "",
//	    "s3Prefix": "reactor/",
//	    "s3Region": "us-east-1"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Addr:", cfg.Serve.Addr)
package config
