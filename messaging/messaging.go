package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sentry "github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"mixsplit/config"
	"mixsplit/pipeline"
)

// Publisher sends job completion messages on the results channel.
type Publisher struct {
	client  *redis.Client
	channel string
	logger  *log.Entry
}

func NewPublisher() *Publisher {
	return &Publisher{
		client:  redis.NewClient(&redis.Options{Addr: config.Config.Redis.Addr}),
		channel: config.Config.Redis.ResultsChannel,
		logger:  log.WithFields(log.Fields{"module": "messaging", "role": "publisher"}),
	}
}

// PublishResult announces a finished job. Failures are logged, not
// propagated; a dead results channel must not fail the job itself.
func (p *Publisher) PublishResult(ctx context.Context, result pipeline.JobResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		p.logger.Errorf("marshaling result: %v", err)
		return
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.Errorf("publishing result for job %s: %v", result.JobID, err)
		sentry.CaptureException(err)
		return
	}
	p.logger.Debugf("published result for job %s to %s", result.JobID, p.channel)
}

func (p *Publisher) Close() error {
	return p.client.Close()
}

// Subscriber turns inbound trigger messages into jobs.
type Subscriber struct {
	client  *redis.Client
	channel string
	logger  *log.Entry
}

func NewSubscriber() *Subscriber {
	return &Subscriber{
		client:  redis.NewClient(&redis.Options{Addr: config.Config.Redis.Addr}),
		channel: config.Config.Redis.JobsChannel,
		logger:  log.WithFields(log.Fields{"module": "messaging", "role": "subscriber"}),
	}
}

// Listen subscribes to the jobs channel and forwards each valid trigger onto
// jobs. Blocks until ctx is canceled; malformed messages are logged and
// dropped.
func (s *Subscriber) Listen(ctx context.Context, jobs chan<- pipeline.MixJob) {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	s.logger.Infof("subscribed to channel %s", s.channel)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			job, err := ParseJobMessage([]byte(msg.Payload))
			if err != nil {
				s.logger.Warnf("dropping malformed job message: %v", err)
				continue
			}
			s.logger.Infof("received job trigger for %s", job.URL)
			jobs <- job
		}
	}
}

func (s *Subscriber) Close() error {
	return s.client.Close()
}

// ParseJobMessage decodes an inbound trigger payload. URL is mandatory;
// output folder and job id are optional.
func ParseJobMessage(payload []byte) (pipeline.MixJob, error) {
	var job pipeline.MixJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return pipeline.MixJob{}, fmt.Errorf("decoding job message: %w", err)
	}
	if job.URL == "" {
		return pipeline.MixJob{}, errors.New("job message missing url")
	}
	return job, nil
}
