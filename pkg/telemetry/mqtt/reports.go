package mqtt

import (
	"context"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/pwmlink/pkg/telemetry"
)

// ReportTopicSuffix is the last topic level reports are published under.
const ReportTopicSuffix = "report"

// ReportTopic returns the topic of a node's reports.
func ReportTopic(nodeID string) string {
	return nodeID + "/" + ReportTopicSuffix
}

// Publisher publishes reports of one node.
type Publisher struct {
	Queue    *Queue
	NodeID   string
	Encoding telemetry.Encoding
}

// NewPublisher creates a Publisher from a broker URL.
func NewPublisher(brokerURL, nodeID string, enc telemetry.Encoding) (*Publisher, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Publisher{Queue: q, NodeID: nodeID, Encoding: enc}, nil
}

// Publish implements telemetry.Sink. It never blocks; reports published
// while disconnected are dropped.
func (p *Publisher) Publish(r *telemetry.Report) {
	r.NodeID = p.NodeID
	data, err := p.Encoding.Marshal(r)
	if err != nil {
		glog.Warningf("encode report: %v", err)
		return
	}
	if !p.Queue.Client.IsConnectionOpen() {
		glog.V(2).Infof("mqtt not connected, report dropped")
		return
	}
	p.Queue.Pub(ReportTopic(p.NodeID), data)
}

// Run implements Runnable. It keeps the connection until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	return runQueue(ctx, p.Queue)
}

// Subscriber receives reports of all nodes, or of one node.
type Subscriber struct {
	Queue    *Queue
	NodeID   string
	OnReport func(*telemetry.Report)
}

// NewSubscriber creates a Subscriber from a broker URL.
func NewSubscriber(brokerURL string, onReport func(*telemetry.Report)) (*Subscriber, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Subscriber{Queue: q, OnReport: onReport}, nil
}

// Filter returns the subscribed topic filter.
func (s *Subscriber) Filter() string {
	if s.NodeID == "" {
		return ReportTopic("+")
	}
	return ReportTopic(s.NodeID)
}

// Run implements Runnable.
func (s *Subscriber) Run(ctx context.Context) error {
	sub := s.Queue.Sub(s.Filter(), s.handle)
	defer sub.Close()
	return runQueue(ctx, s.Queue)
}

func (s *Subscriber) handle(topic string, payload []byte) {
	r, err := telemetry.Unmarshal(payload)
	if err != nil {
		glog.Warningf("invalid report on %s: %v", topic, err)
		return
	}
	if r.NodeID == "" {
		r.NodeID = strings.TrimSuffix(topic, "/"+ReportTopicSuffix)
	}
	s.OnReport(r)
}

func runQueue(ctx context.Context, q *Queue) error {
	token := q.Connect()
	// auto reconnect covers later failures; the first attempt is reported.
	if token.WaitTimeout(10*time.Second) && token.Error() != nil {
		return token.Error()
	}
	<-ctx.Done()
	q.Close()
	return ctx.Err()
}
