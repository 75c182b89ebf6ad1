package relational_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/storage/relational"
)

func TestRepository_CreateNode(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := relational.NewRepositoryWithPool(mock)
	n := model.Node{ID: "n1", Index: "idx1", Name: "Ada Lovelace", Type: "person", Desc: "mathematician"}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO nodes")).
		WithArgs(n.ID, n.Index, n.Name, n.Type, n.Desc).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.CreateNode(context.Background(), n)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateNodeDesc(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := relational.NewRepositoryWithPool(mock)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE nodes SET description")).
		WithArgs("idx1", "n1", "updated desc").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.UpdateNodeDesc(context.Background(), "idx1", "n1", "updated desc")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetNodesByIndex(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := relational.NewRepositoryWithPool(mock)

	rows := pgxmock.NewRows([]string{"id", "index_id", "name", "type", "description"}).
		AddRow("n1", "idx1", "Ada Lovelace", "person", "mathematician").
		AddRow("n2", "idx1", "Charles Babbage", "person", "inventor")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, index_id, name, type, description FROM nodes WHERE index_id = $1")).
		WithArgs("idx1").
		WillReturnRows(rows)

	nodes, err := repo.GetNodesByIndex(context.Background(), "idx1")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	require.Equal(t, "Ada Lovelace", nodes[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetNodesByIds_EmptyReturnsEmptySlice(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := relational.NewRepositoryWithPool(mock)

	nodes, err := repo.GetNodesByIds(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, nodes)
	require.NoError(t, mock.ExpectationsWereMet())
}
