package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhereBuilder(t *testing.T) {
	var w WhereBuilder
	assert.Equal(t, "", w.SQL())

	w.Add("status = ?", "Published")
	w.Add("(title ILIKE ? OR slug ILIKE ?)", "%go%", "%go%")
	limit := w.Next(10)

	assert.Equal(t, " WHERE status = $1 AND (title ILIKE $2 OR slug ILIKE $3)", w.SQL())
	assert.Equal(t, "$4", limit)
	assert.Equal(t, []any{"Published", "%go%", "%go%", 10}, w.Args())
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%go%`, LikePattern("go"))
	assert.Equal(t, `%100\%\_done\\%`, LikePattern(`100%_done\`))
}
