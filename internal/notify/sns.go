package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"freightchat/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
)

// SNSPublisher is the subset of the SNS client used here
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes notifications to an SNS topic in the background
type SNSNotifier struct {
	client   SNSPublisher
	topicARN string
	timeout  time.Duration
	log      logger.Logger
	wg       sync.WaitGroup
}

// NewSNSNotifier loads the default AWS config for region and builds a notifier
func NewSNSNotifier(ctx context.Context, region, topicARN string, timeout time.Duration, log logger.Logger) (*SNSNotifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewSNSNotifierWithClient(sns.NewFromConfig(awsCfg), topicARN, timeout, log), nil
}

// NewSNSNotifierWithClient builds a notifier over an existing publisher
func NewSNSNotifierWithClient(client SNSPublisher, topicARN string, timeout time.Duration, log logger.Logger) *SNSNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SNSNotifier{
		client:   client,
		topicARN: topicARN,
		timeout:  timeout,
		log:      log.With(map[string]interface{}{"notifier": "sns"}),
	}
}

// Notify publishes without blocking the caller. Failures are logged.
func (n *SNSNotifier) Notify(title, body string, severity Severity) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		messageID := uuid.New().String()
		_, err := n.client.Publish(ctx, &sns.PublishInput{
			TopicArn: aws.String(n.topicARN),
			Subject:  aws.String(subject(title)),
			Message:  aws.String(body),
			MessageAttributes: map[string]types.MessageAttributeValue{
				"severity": {
					DataType:    aws.String("String"),
					StringValue: aws.String(string(severity)),
				},
				"notification_id": {
					DataType:    aws.String("String"),
					StringValue: aws.String(messageID),
				},
			},
		})
		if err != nil {
			n.log.WithError(err).Warn("failed to publish notification", map[string]interface{}{
				"title":           title,
				"notification_id": messageID,
			})
			return
		}
		n.log.Debug("notification published", map[string]interface{}{"notification_id": messageID})
	}()
}

// Wait blocks until in-flight publishes finish. Used on shutdown.
func (n *SNSNotifier) Wait() {
	n.wg.Wait()
}

// SNS subjects are limited to 100 characters
func subject(title string) string {
	if len(title) <= 100 {
		return title
	}
	return title[:97] + "..."
}
