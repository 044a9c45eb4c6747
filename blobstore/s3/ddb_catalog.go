package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/chainmap/blobstore"
)

// DDBClient is the subset of *dynamodb.Client the catalog uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DDBCatalog implements blobstore.Catalog on DynamoDB. Each commit is an
// item keyed by (base_uri, version) and written with a conditional put, so
// two writers racing for the same version cannot both succeed.
//
// Table schema:
//
//	aws dynamodb create-table \
//	  --table-name chainmap-snapshots \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCatalog struct {
	client    DDBClient
	tableName string
	baseURI   string
}

// NewDDBCatalog creates a catalog. baseURI partitions the table, typically
// "s3://bucket/prefix".
func NewDDBCatalog(client DDBClient, tableName, baseURI string) *DDBCatalog {
	return &DDBCatalog{
		client:    client,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

// Latest returns the highest committed version.
func (c *DDBCatalog) Latest(ctx context.Context) (blobstore.Commit, error) {
	resp, err := c.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: c.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return blobstore.Commit{}, fmt.Errorf("s3: query catalog: %w", err)
	}
	if len(resp.Items) == 0 {
		return blobstore.Commit{}, blobstore.ErrNoCommit
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return blobstore.Commit{}, errors.New("s3: catalog item without numeric version")
	}
	blobAttr, ok := item["blob"].(*types.AttributeValueMemberS)
	if !ok {
		return blobstore.Commit{}, errors.New("s3: catalog item without blob name")
	}
	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return blobstore.Commit{}, fmt.Errorf("s3: parse catalog version: %w", err)
	}
	return blobstore.Commit{Version: version, Name: blobAttr.Value}, nil
}

// Commit records name as the next version. It returns
// blobstore.ErrConcurrentCommit if another writer took that version.
func (c *DDBCatalog) Commit(ctx context.Context, name string) (blobstore.Commit, error) {
	prev, err := c.Latest(ctx)
	if err != nil && !errors.Is(err, blobstore.ErrNoCommit) {
		return blobstore.Commit{}, err
	}
	next := blobstore.Commit{Version: prev.Version + 1, Name: name}

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: c.baseURI},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(next.Version, 10)},
			"blob":     &types.AttributeValueMemberS{Value: name},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return blobstore.Commit{}, blobstore.ErrConcurrentCommit
		}
		return blobstore.Commit{}, fmt.Errorf("s3: commit version %d: %w", next.Version, err)
	}
	return next, nil
}

var _ blobstore.Catalog = (*DDBCatalog)(nil)
