package news

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTasks(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("submit with a by clause", func(t *testing.T) {
		tasks := ExtractTasks("Please submit the quarterly report by Friday.", now)
		require.Len(t, tasks, 1)
		assert.Equal(t, "submit", tasks[0].Verb)
		assert.Equal(t, "the quarterly report by friday", tasks[0].Text)
		assert.Equal(t, "friday", tasks[0].DueDate)
	})

	t.Run("relative date resolves against now", func(t *testing.T) {
		tasks := ExtractTasks("Join the team meeting tomorrow", now)
		require.Len(t, tasks, 1)
		assert.Equal(t, "attend", tasks[0].Verb)
		assert.Equal(t, "2026-03-11", tasks[0].DueDate)
	})

	t.Run("iso date", func(t *testing.T) {
		tasks := ExtractTasks("Pay the invoice before 2026-04-01.", now)
		require.Len(t, tasks, 1)
		assert.Equal(t, "pay", tasks[0].Verb)
		assert.Equal(t, "2026-04-01", tasks[0].DueDate)
	})

	t.Run("no tasks", func(t *testing.T) {
		assert.Empty(t, ExtractTasks("Markets were quiet today.", now))
	})
}
