package account

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBClient defines the DynamoDB operations used for account lookups.
type DynamoDBClient interface {
	GetItem(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoDBRepository reads account inbound preferences from a DynamoDB table.
type DynamoDBRepository struct {
	client    DynamoDBClient
	tableName string
}

// NewDynamoDBRepository creates a new DynamoDBRepository.
func NewDynamoDBRepository(client DynamoDBClient, tableName string) *DynamoDBRepository {
	return &DynamoDBRepository{
		client:    client,
		tableName: tableName,
	}
}

// GetAccount implements Backend.
func (r *DynamoDBRepository) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	output, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			AttrPK: &types.AttributeValueMemberS{Value: PK(accountID)},
			AttrSK: &types.AttributeValueMemberS{Value: SKInbound},
		},
	})
	if err != nil {
		return nil, err
	}

	if output.Item == nil {
		return nil, ErrAccountNotFound
	}

	return &Account{
		BounceSenders:  stringsAttr(output.Item[AttrBounceSenders]),
		ForwardTargets: stringsAttr(output.Item[AttrForwardTargets]),
	}, nil
}

// stringsAttr reads a string set, a list of strings, or a single string.
func stringsAttr(av types.AttributeValue) []string {
	switch v := av.(type) {
	case *types.AttributeValueMemberSS:
		return append([]string(nil), v.Value...)
	case *types.AttributeValueMemberL:
		var out []string
		for _, item := range v.Value {
			if s, ok := item.(*types.AttributeValueMemberS); ok {
				out = append(out, s.Value)
			}
		}
		return out
	case *types.AttributeValueMemberS:
		return []string{v.Value}
	}
	return nil
}
