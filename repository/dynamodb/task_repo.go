package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/repository"
)

// DefaultUserIndex is the global secondary index keyed by userId and sorted by createdAt.
const DefaultUserIndex = "UserIdIndex"

// API is the subset of *dynamodb.Client the repository uses.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

type taskRepository struct {
	client API
	table  string
	index  string
}

// NewTaskRepository returns a DynamoDB-backed TaskRepository using table and
// its userId index.
func NewTaskRepository(client API, table, index string) repository.TaskRepository {
	if index == "" {
		index = DefaultUserIndex
	}
	return &taskRepository{client: client, table: table, index: index}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.ID == "" {
		return nil, domain.ErrInvalidPayload
	}

	item := repository.ToItem(task)
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("dynamodb: marshal task: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(repository.AttrID))).
		Build()
	if err != nil {
		return nil, err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.table),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		return nil, translate("create task", err, domain.ErrTaskExists)
	}
	return repository.FromItem(item), nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       key(id),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb: get task: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrTaskNotFound
	}
	return decode(out.Item)
}

// ListByUser queries the user index newest first. Status and priority go into
// a FilterExpression, which narrows the returned items but not the items read.
func (r *taskRepository) ListByUser(ctx context.Context, userID string, filter domain.TaskFilter) ([]domain.Task, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key(repository.AttrUserID).Equal(expression.Value(userID)))
	if cond, ok := filterCondition(filter); ok {
		builder = builder.WithFilter(cond)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, err
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(r.index),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}

	tasks := make([]domain.Task, 0)
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb: list tasks: %w", err)
		}
		for _, av := range page.Items {
			task, err := decode(av)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, *task)
		}
	}
	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, id string, changes domain.TaskChanges, updatedAt time.Time) (*domain.Task, error) {
	var update expression.UpdateBuilder
	for _, attr := range repository.UpdateAttributes(changes, updatedAt) {
		if attr.Value == nil {
			update = update.Remove(expression.Name(attr.Name))
			continue
		}
		update = update.Set(expression.Name(attr.Name), expression.Value(*attr.Value))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(repository.AttrID))).
		Build()
	if err != nil {
		return nil, err
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       key(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, translate("update task", err, domain.ErrTaskNotFound)
	}
	return decode(out.Attributes)
}

func (r *taskRepository) Delete(ctx context.Context, id string) (*domain.Task, error) {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name(repository.AttrID))).
		Build()
	if err != nil {
		return nil, err
	}

	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.table),
		Key:                      key(id),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
		ReturnValues:             types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, translate("delete task", err, domain.ErrTaskNotFound)
	}
	return decode(out.Attributes)
}

func (r *taskRepository) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.table)})
	return err
}

func filterCondition(filter domain.TaskFilter) (expression.ConditionBuilder, bool) {
	var conds []expression.ConditionBuilder
	if filter.Status != "" {
		conds = append(conds, expression.Name(repository.AttrStatus).Equal(expression.Value(string(filter.Status))))
	}
	if filter.Priority != "" {
		conds = append(conds, expression.Name(repository.AttrPriority).Equal(expression.Value(string(filter.Priority))))
	}
	switch len(conds) {
	case 0:
		return expression.ConditionBuilder{}, false
	case 1:
		return conds[0], true
	default:
		return expression.And(conds[0], conds[1]), true
	}
}

func key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		repository.AttrID: &types.AttributeValueMemberS{Value: id},
	}
}

func decode(av map[string]types.AttributeValue) (*domain.Task, error) {
	var item repository.Item
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, fmt.Errorf("dynamodb: unmarshal task: %w", err)
	}
	return repository.FromItem(item), nil
}

// translate maps a failed condition check to onConditionFailed; every other
// error is returned wrapped.
func translate(op string, err error, onConditionFailed error) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return onConditionFailed
	}
	return fmt.Errorf("dynamodb: %s: %w", op, err)
}
