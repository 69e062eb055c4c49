package mailing

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESTransport delivers through AWS SES using the SDK v2 API.
type SESTransport struct {
	client *sesv2.Client
}

// NewSESTransport builds an SES transport. With empty credentials the SDK
// default chain (instance role, env vars) is used.
func NewSESTransport(ctx context.Context, region, accessKey, secretKey string) (*SESTransport, error) {
	if region == "" {
		region = "us-west-2"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESTransport{client: sesv2.NewFromConfig(cfg)}, nil
}

// Send delivers a single email through SES.
func (t *SESTransport) Send(ctx context.Context, msg *Message) error {
	if t.client == nil {
		return ErrTransportUnavailable
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", msg.FromName, msg.FromEmail)),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if msg.PlainText != "" {
		input.Content.Simple.Body.Text = &types.Content{Data: aws.String(msg.PlainText), Charset: aws.String("UTF-8")}
	}

	return sendWithRetry(ctx, func() error {
		_, err := t.client.SendEmail(ctx, input)
		if err != nil && isConnectionError(err) {
			return fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
		}
		return err
	})
}
