package main

import (
	"flag"
	"log"
	"os"

	"github.com/robotalks/pwmlink/pkg/framework"
	"github.com/robotalks/pwmlink/pkg/telemetry"
	"github.com/robotalks/pwmlink/pkg/telemetry/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/pwmlink/"
	nodeID  string
	asJSON  bool
)

func init() {
	if val := os.Getenv("PWMLINK_TELEMETRY"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&nodeID, "node-id", nodeID, "Only show reports of this node.")
	flag.BoolVar(&asJSON, "json", asJSON, "Print reports in JSON.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	sub, err := mqtt.NewSubscriber(mqttURL, func(r *telemetry.Report) {
		if !asJSON {
			log.Println(r.Summary())
			return
		}
		out, err := telemetry.EncodingJSON.Marshal(r)
		if err != nil {
			log.Printf("encode report: %v", err)
			return
		}
		log.Println(string(out))
	})
	if err != nil {
		log.Fatalln(err)
	}
	sub.NodeID = nodeID

	runner := framework.NewRunner().HandleSignals()
	if err := runner.Go(framework.NamedRun("mqtt", sub)).Wait(); err != nil {
		log.Fatalln(err)
	}
}
