// Package dynamo implements the figure store backend on a DynamoDB table keyed by "pk".
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jonathan/figure-planner/internal/store"
	"github.com/jonathan/figure-planner/internal/types"
)

// KeyAttribute is the partition key of the figures table.
const KeyAttribute = "pk"

// API is the subset of the DynamoDB client the backend uses.
type API interface {
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Config holds the connection settings.
type Config struct {
	Table    string
	Region   string
	Endpoint string // optional, e.g. http://localhost:8000 for DynamoDB Local
}

// Backend stores figures in a DynamoDB table.
type Backend struct {
	api   API
	table string
}

// New creates a Backend over an existing client.
func New(api API, table string) *Backend {
	return &Backend{api: api, table: table}
}

// Connect loads the default AWS configuration and returns a Backend together
// with the raw client.
func Connect(ctx context.Context, cfg Config) (*Backend, *dynamodb.Client, error) {
	if cfg.Table == "" {
		return nil, nil, errors.New("dynamodb table name is required")
	}
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return New(client, cfg.Table), client, nil
}

// Scan implements store.Backend. Reads are strongly consistent so a record
// written just before is visible to identifier allocation.
func (b *Backend) Scan(ctx context.Context) ([]store.Document, error) {
	paginator := dynamodb.NewScanPaginator(b.api, &dynamodb.ScanInput{
		TableName:      aws.String(b.table),
		ConsistentRead: aws.Bool(true),
	})

	var docs []store.Document
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", b.table, err)
		}
		var items []store.Document
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scan page: %w", err)
		}
		docs = append(docs, items...)
	}
	return docs, nil
}

// Get implements store.Backend.
func (b *Backend) Get(ctx context.Context, id string) (store.Document, error) {
	out, err := b.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(b.table),
		Key:            key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, store.ErrItemNotFound
	}
	var doc store.Document
	if err := attributevalue.UnmarshalMap(out.Item, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", id, err)
	}
	return doc, nil
}

// PutIfAbsent implements store.Backend with attribute_not_exists(pk).
func (b *Backend) PutIfAbsent(ctx context.Context, fig *types.Figure) error {
	item, err := attributevalue.MarshalMap(fig)
	if err != nil {
		return fmt.Errorf("failed to marshal figure: %w", err)
	}
	cond, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(KeyAttribute))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = b.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(b.table),
		Item:                     item,
		ConditionExpression:      cond.Condition(),
		ExpressionAttributeNames: cond.Names(),
	})
	if isConditionFailure(err) {
		return store.ErrConditionFailed
	}
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", fig.ID, err)
	}
	return nil
}

// Update implements store.Backend. Only the listed attributes are written and
// the record must already exist.
func (b *Backend) Update(ctx context.Context, id string, changes []types.FieldChange) (store.Document, error) {
	expr, err := BuildUpdate(changes)
	if err != nil {
		return nil, err
	}

	out, err := b.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(b.table),
		Key:                       key(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              ddbtypes.ReturnValueAllNew,
	})
	if isConditionFailure(err) {
		return nil, store.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", id, err)
	}

	var doc store.Document
	if err := attributevalue.UnmarshalMap(out.Attributes, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", id, err)
	}
	return doc, nil
}

// BuildUpdate turns a change list into SET/REMOVE clauses guarded by
// attribute_exists(pk).
func BuildUpdate(changes []types.FieldChange) (expression.Expression, error) {
	if len(changes) == 0 {
		return expression.Expression{}, store.ErrNoChanges
	}

	var update expression.UpdateBuilder
	for _, c := range changes {
		if c.Remove || c.Value == nil {
			update = update.Remove(expression.Name(c.Attr))
			continue
		}
		update = update.Set(expression.Name(c.Attr), expression.Value(c.Value))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(KeyAttribute))).
		Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("failed to build update expression: %w", err)
	}
	return expr, nil
}

// EnsureTable creates the figures table with on-demand billing when it does
// not exist yet.
func EnsureTable(ctx context.Context, client *dynamodb.Client, table string) error {
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		AttributeDefinitions: []ddbtypes.AttributeDefinition{
			{AttributeName: aws.String(KeyAttribute), AttributeType: ddbtypes.ScalarAttributeTypeS},
		},
		KeySchema: []ddbtypes.KeySchemaElement{
			{AttributeName: aws.String(KeyAttribute), KeyType: ddbtypes.KeyTypeHash},
		},
		BillingMode: ddbtypes.BillingModePayPerRequest,
	})
	var inUse *ddbtypes.ResourceInUseException
	if errors.As(err, &inUse) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, tableWait); err != nil {
		return fmt.Errorf("table %s did not become active: %w", table, err)
	}
	return nil
}

func key(id string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		KeyAttribute: &ddbtypes.AttributeValueMemberS{Value: id},
	}
}

func isConditionFailure(err error) bool {
	var ccf *ddbtypes.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

const tableWait = 2 * time.Minute
