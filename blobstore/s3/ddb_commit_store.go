package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/persist/blobstore"
	"github.com/hupe1980/persist/persistence"
)

// CurrentName is the blob name of the checkpoint pointer.
const CurrentName = persistence.CurrentName

var (
	// ErrConcurrentModification is returned when another writer already
	// committed the same checkpoint sequence.
	ErrConcurrentModification = errors.New("s3: checkpoint already committed")
	// ErrStaleCommit is returned when CURRENT already points at a newer
	// checkpoint than the one being committed.
	ErrStaleCommit = errors.New("s3: stale checkpoint commit")
	// ErrInvalidTarget is returned when CURRENT is written with something
	// that is not a checkpoint name.
	ErrInvalidTarget = errors.New("s3: invalid checkpoint name")
)

// DDBClient is the subset of the DynamoDB API used by DDBCommitStore.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

var _ DDBClient = (*dynamodb.Client)(nil)

// DDBCommitStore stores records and checkpoints in S3 and keeps CURRENT in
// DynamoDB, one row per committed checkpoint keyed by its sequence number.
// CURRENT reads the row with the highest sequence, so it only moves forward
// even when several processes checkpoint the same prefix.
//
// Table schema:
//   - Partition key: base_uri (S), the S3 bucket and prefix
//   - Sort key: seq (N), the checkpoint sequence number
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name persist-checkpoints \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=seq,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=seq,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	*Store
	ddb     DDBClient
	table   string
	baseURI string
}

// NewDDBCommitStore wraps store. baseURI partitions the table, usually
// "s3://<bucket>/<prefix>".
func NewDDBCommitStore(store *Store, ddb DDBClient, table, baseURI string) *DDBCommitStore {
	return &DDBCommitStore{
		Store:   store,
		ddb:     ddb,
		table:   table,
		baseURI: baseURI,
	}
}

// Open serves CURRENT from DynamoDB and everything else from S3.
func (s *DDBCommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name != CurrentName {
		return s.Store.Open(ctx, name)
	}
	seq, target, err := s.latest(ctx)
	if err != nil {
		return nil, err
	}
	if seq == 0 {
		return nil, blobstore.ErrNotFound
	}
	return blobstore.NewBytesBlob([]byte(target)), nil
}

// Put commits CURRENT through DynamoDB. Other names go to S3.
func (s *DDBCommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name != CurrentName {
		return s.Store.Put(ctx, name, data)
	}
	return s.commit(ctx, strings.TrimSpace(string(data)))
}

// Version returns the sequence of the checkpoint CURRENT points at, 0 if
// nothing has been committed.
func (s *DDBCommitStore) Version(ctx context.Context) (uint64, error) {
	seq, _, err := s.latest(ctx)
	return seq, err
}

func (s *DDBCommitStore) latest(ctx context.Context) (uint64, string, error) {
	resp, err := s.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
		ConsistentRead:   aws.Bool(true),
	})
	if err != nil {
		return 0, "", fmt.Errorf("s3: query %s: %w", s.table, err)
	}
	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	seqAttr, ok := item["seq"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", fmt.Errorf("s3: %s row has no seq", s.table)
	}
	targetAttr, ok := item["target"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", fmt.Errorf("s3: %s row has no target", s.table)
	}
	seq, err := strconv.ParseUint(seqAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("s3: %s row seq %q: %w", s.table, seqAttr.Value, err)
	}
	if got, ok := persistence.ParseCheckpointName(targetAttr.Value); !ok || got != seq {
		return 0, "", fmt.Errorf("%w: row %d points to %q", ErrInvalidTarget, seq, targetAttr.Value)
	}
	return seq, targetAttr.Value, nil
}

func (s *DDBCommitStore) commit(ctx context.Context, target string) error {
	seq, ok := persistence.ParseCheckpointName(target)
	if !ok || seq == 0 {
		return fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}

	latest, _, err := s.latest(ctx)
	if err != nil {
		return err
	}
	if seq < latest {
		return fmt.Errorf("%w: %d is behind %d", ErrStaleCommit, seq, latest)
	}

	// A row written after the query above only ever raises the maximum,
	// so a late lower seq cannot become CURRENT.
	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
			"seq":      &types.AttributeValueMemberN{Value: strconv.FormatUint(seq, 10)},
			"target":   &types.AttributeValueMemberS{Value: target},
		},
		ConditionExpression: aws.String("attribute_not_exists(seq)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("%w: %d", ErrConcurrentModification, seq)
		}
		return fmt.Errorf("s3: commit %s: %w", target, err)
	}
	return nil
}

var (
	_ blobstore.BlobStore         = (*DDBCommitStore)(nil)
	_ blobstore.ConditionalPutter = (*DDBCommitStore)(nil)
)
