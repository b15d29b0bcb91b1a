package s3

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/protsplit/blobstore"
)

// WriteOnceStore implements blobstore.BlobStore backed by S3 with a DynamoDB
// table that claims each record name before it is uploaded. Two writers racing
// on the same split path cannot both persist a record.
//
// Table schema:
//   - Partition key: base_uri (string) - the S3 bucket/prefix
//   - Sort key: name (string) - the blob name
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name protsplit-records \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=name,AttributeType=S \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=name,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type WriteOnceStore struct {
	s3Store   *Store
	ddbClient DDBClient
	tableName string
	baseURI   string
	now       func() time.Time
}

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// NewWriteOnceStore creates a new S3+DynamoDB write-once store.
// The baseURI should be "s3://bucket/prefix" and is used as partition key.
func NewWriteOnceStore(s3Store *Store, ddbClient DDBClient, tableName, baseURI string) *WriteOnceStore {
	return &WriteOnceStore{
		s3Store:   s3Store,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
		now:       time.Now,
	}
}

// Open opens a blob for reading.
func (s *WriteOnceStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	return s.s3Store.Open(ctx, name)
}

// Put writes a blob without claiming it.
func (s *WriteOnceStore) Put(ctx context.Context, name string, data []byte) error {
	return s.s3Store.Put(ctx, name, data)
}

// PutIfAbsent claims name in DynamoDB and uploads data to S3.
// If the upload fails the claim is released so a later run can retry.
func (s *WriteOnceStore) PutIfAbsent(ctx context.Context, name string, data []byte) error {
	_, err := s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri":   &types.AttributeValueMemberS{Value: s.baseURI},
			"name":       &types.AttributeValueMemberS{Value: name},
			"size":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", len(data))},
			"created_at": &types.AttributeValueMemberS{Value: s.now().UTC().Format(time.RFC3339)},
		},
		ConditionExpression: aws.String("attribute_not_exists(#n)"),
		ExpressionAttributeNames: map[string]string{
			"#n": "name",
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("blob %s: %w", name, blobstore.ErrExists)
		}
		return fmt.Errorf("failed to claim %s in DynamoDB: %w", name, err)
	}

	if err := s.s3Store.Put(ctx, name, data); err != nil {
		if relErr := s.release(ctx, name); relErr != nil {
			return errors.Join(err, relErr)
		}
		return err
	}
	return nil
}

// Delete removes the blob and its claim.
func (s *WriteOnceStore) Delete(ctx context.Context, name string) error {
	if err := s.s3Store.Delete(ctx, name); err != nil {
		return err
	}
	return s.release(ctx, name)
}

// List lists blobs with prefix.
func (s *WriteOnceStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.s3Store.List(ctx, prefix)
}

func (s *WriteOnceStore) release(ctx context.Context, name string) error {
	_, err := s.ddbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
			"name":     &types.AttributeValueMemberS{Value: name},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to release claim on %s: %w", name, err)
	}
	return nil
}
