package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/mkarpins/docsync/internal/common"
	"github.com/mkarpins/docsync/internal/models"
)

// DynamoConfig carries the settings needed to reach the remote collection.
// Endpoint and static credentials are for local stacks; production relies
// on the default credential chain.
type DynamoConfig struct {
	Region    string
	Endpoint  string
	Table     string
	AccessKey string
	SecretKey string
}

// DynamoStore implements Store on a DynamoDB table with partition key
// ownerId and sort key syncId.
type DynamoStore struct {
	client *dynamodb.Client
	table  string
}

// NewDynamoStore builds the DynamoDB client.
func NewDynamoStore(ctx context.Context, cfg DynamoConfig) (*DynamoStore, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithHTTPClient(httpClient),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}
	if cfg.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return &DynamoStore{client: dynamodb.NewFromConfig(awsCfg), table: cfg.Table}, nil
}

// transient wraps transport-level failures so the retry policy applies.
func transient(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrTransientNetwork, op, err)
}

func (s *DynamoStore) key(ownerID, syncID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"ownerId": &types.AttributeValueMemberS{Value: ownerID},
		"syncId":  &types.AttributeValueMemberS{Value: syncID},
	}
}

// Put writes the document unless the stored version is already equal or
// newer, in which case it reports common.ErrVersionConflict.
func (s *DynamoStore) Put(ctx context.Context, d *models.Document) error {
	item, err := attributevalue.MarshalMap(toWire(d))
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(syncId) OR version < :v"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", d.Version)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("put %s: %w", d.SyncID, common.ErrVersionConflict)
		}
		return transient("put "+d.SyncID, err)
	}
	return nil
}

func (s *DynamoStore) Get(ctx context.Context, ownerID, syncID string) (*models.Document, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.key(ownerID, syncID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, transient("get "+syncID, err)
	}
	if out.Item == nil {
		return nil, common.ErrNotFound
	}

	w := &wireDocument{}
	if err := attributevalue.UnmarshalMap(out.Item, w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return fromWire(w), nil
}

func (s *DynamoStore) Delete(ctx context.Context, ownerID, syncID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(ownerID, syncID),
	})
	if err != nil {
		return transient("delete "+syncID, err)
	}
	return nil
}

func (s *DynamoStore) ListByOwner(ctx context.Context, ownerID string) ([]*models.Document, error) {
	var result []*models.Document

	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("ownerId = :o"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":o": &types.AttributeValueMemberS{Value: ownerID},
		},
	}
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, transient("list "+ownerID, err)
		}

		var page []wireDocument
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal documents: %w", err)
		}
		for i := range page {
			result = append(result, fromWire(&page[i]))
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return result, nil
}
