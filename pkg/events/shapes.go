package events

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// APIGatewayProxyRequest is an HTTP request proxied by an API gateway.
type APIGatewayProxyRequest struct {
	Resource              string              `json:"resource"`
	Path                  string              `json:"path"`
	HTTPMethod            string              `json:"httpMethod"`
	Headers               map[string]string   `json:"headers"`
	MultiValueHeaders     map[string][]string `json:"multiValueHeaders"`
	QueryStringParameters map[string]string   `json:"queryStringParameters"`
	PathParameters        map[string]string   `json:"pathParameters"`
	StageVariables        map[string]string   `json:"stageVariables"`
	RequestContext        APIGatewayContext   `json:"requestContext"`
	Body                  string              `json:"body"`
	IsBase64Encoded       bool                `json:"isBase64Encoded"`
}

// APIGatewayContext describes the gateway-side request.
type APIGatewayContext struct {
	AccountID   string    `json:"accountId"`
	RequestID   string    `json:"requestId"`
	Stage       string    `json:"stage"`
	DomainName  string    `json:"domainName"`
	RequestTime Timestamp `json:"requestTimeEpoch"`
}

// DecodedBody returns the body, base64-decoded when the gateway encoded it.
func (r *APIGatewayProxyRequest) DecodedBody() ([]byte, error) {
	if !r.IsBase64Encoded {
		return []byte(r.Body), nil
	}
	return base64.StdEncoding.DecodeString(r.Body)
}

func (r *APIGatewayProxyRequest) validate() error {
	if r.HTTPMethod == "" {
		return errors.New("httpMethod is required")
	}
	if r.IsBase64Encoded {
		if _, err := r.DecodedBody(); err != nil {
			return fmt.Errorf("body: %w", err)
		}
	}
	return nil
}

// SQSEvent is a batch of queue messages.
type SQSEvent struct {
	Records []SQSMessage `json:"Records"`
}

// SQSMessage is one queue message.
type SQSMessage struct {
	MessageID         string                         `json:"messageId"`
	ReceiptHandle     string                         `json:"receiptHandle"`
	Body              string                         `json:"body"`
	MD5OfBody         string                         `json:"md5OfBody"`
	Attributes        map[string]string              `json:"attributes"`
	MessageAttributes map[string]SQSMessageAttribute `json:"messageAttributes"`
	EventSource       string                         `json:"eventSource"`
	EventSourceARN    string                         `json:"eventSourceARN"`
	AWSRegion         string                         `json:"awsRegion"`
}

// SQSMessageAttribute is a typed message attribute.
type SQSMessageAttribute struct {
	StringValue *string `json:"stringValue,omitempty"`
	BinaryValue []byte  `json:"binaryValue,omitempty"`
	DataType    string  `json:"dataType"`
}

func (e *SQSEvent) validate() error {
	for i, rec := range e.Records {
		if rec.MessageID == "" {
			return fmt.Errorf("Records[%d]: messageId is required", i)
		}
	}
	return nil
}

// SNSEvent is a batch of topic notifications.
type SNSEvent struct {
	Records []SNSEventRecord `json:"Records"`
}

// SNSEventRecord wraps one notification.
type SNSEventRecord struct {
	EventVersion         string    `json:"EventVersion"`
	EventSubscriptionArn string    `json:"EventSubscriptionArn"`
	EventSource          string    `json:"EventSource"`
	SNS                  SNSEntity `json:"Sns"`
}

// SNSEntity is the notification payload.
type SNSEntity struct {
	MessageID         string                    `json:"MessageId"`
	Type              string                    `json:"Type"`
	TopicArn          string                    `json:"TopicArn"`
	Subject           string                    `json:"Subject"`
	Message           string                    `json:"Message"`
	Timestamp         Timestamp                 `json:"Timestamp"`
	MessageAttributes map[string]SNSMessageAttr `json:"MessageAttributes"`
}

// SNSMessageAttr is a notification attribute.
type SNSMessageAttr struct {
	Type  string `json:"Type"`
	Value string `json:"Value"`
}

func (e *SNSEvent) validate() error {
	for i, rec := range e.Records {
		if rec.SNS.MessageID == "" {
			return fmt.Errorf("Records[%d]: Sns.MessageId is required", i)
		}
	}
	return nil
}

// S3Event is a batch of object storage notifications.
type S3Event struct {
	Records []S3EventRecord `json:"Records"`
}

// S3EventRecord describes one object change.
type S3EventRecord struct {
	EventVersion string    `json:"eventVersion"`
	EventSource  string    `json:"eventSource"`
	AWSRegion    string    `json:"awsRegion"`
	EventTime    Timestamp `json:"eventTime"`
	EventName    string    `json:"eventName"`
	S3           S3Entity  `json:"s3"`
}

// S3Entity names the bucket and object.
type S3Entity struct {
	ConfigurationID string   `json:"configurationId"`
	Bucket          S3Bucket `json:"bucket"`
	Object          S3Object `json:"object"`
}

// S3Bucket identifies a bucket.
type S3Bucket struct {
	Name string `json:"name"`
	Arn  string `json:"arn"`
}

// S3Object identifies an object version.
type S3Object struct {
	Key       string `json:"key"`
	Size      int64  `json:"size"`
	ETag      string `json:"eTag"`
	VersionID string `json:"versionId"`
	Sequencer string `json:"sequencer"`
}

func (e *S3Event) validate() error {
	for i, rec := range e.Records {
		if rec.S3.Bucket.Name == "" {
			return fmt.Errorf("Records[%d]: s3.bucket.name is required", i)
		}
	}
	return nil
}

// ScheduledEvent is emitted by a scheduler on every tick.
type ScheduledEvent struct {
	ID         string          `json:"id"`
	Version    string          `json:"version"`
	DetailType string          `json:"detail-type"`
	Source     string          `json:"source"`
	Account    string          `json:"account"`
	Time       Timestamp       `json:"time"`
	Region     string          `json:"region"`
	Resources  []string        `json:"resources"`
	Detail     json.RawMessage `json:"detail"`
}

func (e *ScheduledEvent) validate() error {
	if e.Source == "" {
		return errors.New("source is required")
	}
	return nil
}
