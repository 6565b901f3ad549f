package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	apperrors "careplan-workers/internal/common/errors"
	"careplan-workers/internal/models"
)

// PublishAPI is the subset of the SNS client the notifier uses.
type PublishAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func NewSNSClient(ctx context.Context, region string) (*sns.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return sns.NewFromConfig(cfg), nil
}

// CrisisNotice is the whole message body. It never carries intake text.
type CrisisNotice struct {
	AssessmentID            string    `json:"assessmentId"`
	IssueType               string    `json:"issueType"`
	Urgency                 string    `json:"urgency"`
	SeverityScore           int       `json:"severityScore"`
	NeedsImmediateResources bool      `json:"needsImmediateResources"`
	DegradedStages          []string  `json:"degradedStages,omitempty"`
	CreatedAt               time.Time `json:"createdAt"`
}

// CrisisNotifier publishes a notice for plans that lead with crisis resources.
type CrisisNotifier struct {
	client   PublishAPI
	topicARN string
}

func NewCrisisNotifier(client PublishAPI, topicARN string) *CrisisNotifier {
	return &CrisisNotifier{client: client, topicARN: topicARN}
}

func (n *CrisisNotifier) NotifyCrisis(ctx context.Context, rec models.AssessmentRecord) error {
	c := rec.Plan.Classification
	body, err := json.Marshal(CrisisNotice{
		AssessmentID:            rec.ID,
		IssueType:               string(c.IssueType),
		Urgency:                 string(c.Urgency),
		SeverityScore:           c.SeverityScore,
		NeedsImmediateResources: c.NeedsImmediateResources,
		DegradedStages:          rec.DegradedStages,
		CreatedAt:               rec.CreatedAt,
	})
	if err != nil {
		return apperrors.NewNotificationSendFailedError("sns", err)
	}

	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String("Crisis-level assessment"),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"urgency": {DataType: aws.String("String"), StringValue: aws.String(string(c.Urgency))},
		},
	})
	if err != nil {
		return apperrors.NewNotificationSendFailedError("sns", err)
	}
	return nil
}
