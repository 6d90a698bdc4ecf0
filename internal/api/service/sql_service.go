package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"studio"
	"studio/internal/api/models"
	"studio/internal/llm"
	"studio/pkg"
)

const cacheTTL = 60 * time.Minute

type SqlService struct {
	logger          zerolog.Logger
	metadataService *MetadataService
	llmClient       llm.Client
}

func NewSqlService(llmClient llm.Client) *SqlService {
	return &SqlService{
		logger:          studio.Logger,
		metadataService: NewMetadataService(),
		llmClient:       llmClient,
	}
}

// GuessQuery asks the model for a SELECT answering the prompt against the
// connection's schema. The result is refused unless it parses as a plain
// SELECT.
func (slf *SqlService) GuessQuery(ctx context.Context, prompt string, connectionID int, previousMessages []string) (string, error) {
	metadata, err := slf.resolveMetadata(connectionID)
	if err != nil {
		return "", err
	}

	dbSchema, err := slf.resolveSchema(connectionID, *metadata)
	if err != nil {
		return "", err
	}

	// Schema goes into the prompt on the first turn and again once the
	// rolling history outgrows the limit.
	messageLimit := studio.GetConfig().LLMConfig.MessageLimit
	includeSchema := len(previousMessages) == 0 || len(previousMessages) >= messageLimit

	messages := []llm.Message{{Role: "system", Content: sqlSystemPrompt(metadata.DbType, dbSchema, includeSchema)}}
	for _, prev := range previousMessages {
		messages = append(messages, llm.Message{Role: "user", Content: prev})
	}
	messages = append(messages, llm.Message{Role: "user", Content: prompt})

	raw, err := slf.llmClient.Complete(ctx, llm.ChatRequest{Messages: messages, Temperature: 0})
	if err != nil {
		return "", fmt.Errorf("guess query failed: %w", err)
	}

	query := ExtractCode(raw)
	if !pkg.IsSafeSelect(query) {
		return "", fmt.Errorf("generated query is not a select statement")
	}
	return query, nil
}

// OptimizeQuery asks the model to rewrite a SELECT for performance and
// explain the change.
func (slf *SqlService) OptimizeQuery(ctx context.Context, query string, connectionID int) (string, string, error) {
	if !pkg.IsSafeSelect(query) {
		return "", "", fmt.Errorf("query is not a select query, can't optimize that: %s", query)
	}

	metadata, err := slf.resolveMetadata(connectionID)
	if err != nil {
		return "", "", err
	}

	messages := []llm.Message{
		{Role: "system", Content: fmt.Sprintf(
			"You optimize %s SELECT queries. Reply with the optimized query in a ```sql fence, then one short paragraph explaining the change.", metadata.DbType)},
		{Role: "user", Content: query},
	}
	raw, err := slf.llmClient.Complete(ctx, llm.ChatRequest{Messages: messages, Temperature: 0})
	if err != nil {
		return "", "", err
	}

	optimized := ExtractCode(raw)
	if !pkg.IsSafeSelect(optimized) {
		return "", "", fmt.Errorf("optimized query is not a select statement")
	}
	explanation := strings.TrimSpace(stripFirstFence(raw))
	return optimized, explanation, nil
}

func sqlSystemPrompt(dbType models.DBType, schema []pkg.TableMetadata, includeSchema bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You translate analyst questions into %s SELECT queries. ", dbType)
	sb.WriteString("Reply with exactly one query inside a ```sql fence and nothing else. Never write data-modifying statements.")
	if includeSchema {
		sb.WriteString("\n\nDatabase schema:\n")
		sb.WriteString(pkg.TableMetadataToLLMFormat(schema))
	}
	return sb.String()
}

func (slf *SqlService) resolveMetadata(connectionID int) (*models.MetadataDatabase, error) {
	cacheKey := fmt.Sprintf("conn:%d:meta", connectionID)
	var metadata models.MetadataDatabase
	if err := pkg.RedisGet(cacheKey, &metadata); err != nil {
		if !pkg.IsRedisNil(err) {
			return nil, fmt.Errorf("redis error: %w", err)
		}
		found, err := slf.metadataService.FindByID(uint(connectionID))
		if err != nil {
			return nil, fmt.Errorf("connection %d not found: %w", connectionID, err)
		}
		metadata = *found
		_ = pkg.RedisSet(cacheKey, metadata, cacheTTL)
	}
	return &metadata, nil
}

func (slf *SqlService) resolveSchema(connectionID int, metadata models.MetadataDatabase) ([]pkg.TableMetadata, error) {
	cacheKey := fmt.Sprintf("conn:%d:schema", connectionID)
	var schema []pkg.TableMetadata
	if err := pkg.RedisGet(cacheKey, &schema); err != nil {
		if !pkg.IsRedisNil(err) {
			return nil, fmt.Errorf("redis error: %w", err)
		}
		fetched, err := slf.fetchSchema(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch schema: %w", err)
		}
		schema = fetched
		_ = pkg.RedisSet(cacheKey, schema, cacheTTL)
	}
	return schema, nil
}

func (slf *SqlService) fetchSchema(metadata models.MetadataDatabase) ([]pkg.TableMetadata, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch metadata.DbType {
	case models.DBTypePostgres:
		dsn, err := metadata.ConnectionString()
		if err != nil {
			return nil, err
		}
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		defer pool.Close()
		return pkg.FindPostgresSchemaDatabaseSchema(ctx, pool)

	case models.DBTypeMySQL:
		dsn, err := metadata.ConnectionString()
		if err != nil {
			return nil, err
		}
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return pkg.FindMySQLSchemaDatabaseSchema(ctx, db)

	case models.DBTypeSQLServer:
		dsn, err := metadata.ConnectionString()
		if err != nil {
			return nil, err
		}
		db, err := sql.Open("sqlserver", dsn)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return pkg.FindSQLServerSchemaDatabaseSchema(ctx, db)

	default:
		return nil, fmt.Errorf("unsupported database type for schema fetch: %s", metadata.DbType)
	}
}
