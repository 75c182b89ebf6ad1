package pgvector_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	pgv "github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/require"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/vectormemory/pgvector"
	embmock "github.com/MrWong99/glyphoxa-graphrag/pkg/provider/embeddings/mock"
)

func TestMemory_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	embedder := &embmock.Provider{EmbedResult: []float32{0.1, 0.2, 0.3}, DimensionsValue: 3}
	m := pgvector.NewWithPool(mock, embedder)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO vector_entries")).
		WithArgs("ns1", "n1", "Ada Lovelace", pgv.NewVector([]float32{0.1, 0.2, 0.3})).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = m.Save(context.Background(), "ns1", "n1", "Ada Lovelace")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemory_Search(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	embedder := &embmock.Provider{EmbedResult: []float32{1, 0, 0}, DimensionsValue: 3}
	m := pgvector.NewWithPool(mock, embedder)

	rows := pgxmock.NewRows([]string{"id", "text", "relevance"}).
		AddRow("n1", "Ada Lovelace", 0.95).
		AddRow("n2", "Charles Babbage", 0.80)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, text, 1 - (embedding <=> $1) AS relevance")).
		WithArgs(pgv.NewVector([]float32{1, 0, 0}), "ns1", 0.5, 10).
		WillReturnRows(rows)

	matches, err := m.Search(context.Background(), "ns1", "query", 10, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, "n1", matches[0].ID)
	require.InDelta(t, 0.95, matches[0].Relevance, 1e-9)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemory_Remove(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	embedder := &embmock.Provider{}
	m := pgvector.NewWithPool(mock, embedder)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM vector_entries WHERE namespace = $1 AND id = $2")).
		WithArgs("ns1", "n1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err = m.Remove(context.Background(), "ns1", "n1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemory_DeleteNamespace(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	embedder := &embmock.Provider{}
	m := pgvector.NewWithPool(mock, embedder)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM vector_entries WHERE namespace = $1")).
		WithArgs("ns1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	err = m.DeleteNamespace(context.Background(), "ns1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
