package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectQueryBuild(t *testing.T) {
	q := newSelect("SELECT id FROM contracts")
	query, args := q.build("id", 0, -3)
	assert.Equal(t, "SELECT id FROM contracts ORDER BY id LIMIT 100 OFFSET 0", query)
	assert.Empty(t, args)

	q = newSelect("SELECT id FROM contracts")
	q.where("client_id", int64(4))
	q.where("signed", false)
	query, args = q.build("id", 10, 20)
	assert.Equal(t, "SELECT id FROM contracts WHERE client_id=$1 AND signed=$2 ORDER BY id LIMIT 10 OFFSET 20", query)
	assert.Equal(t, []any{int64(4), false}, args)
}
