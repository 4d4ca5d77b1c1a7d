package worker

import (
	"testing"

	"github.com/jzx17/pinpool/pkg/types"
	"github.com/stretchr/testify/assert"
)

type sumArgs struct {
	values []int
}

func sum(args *sumArgs, result *int) {
	for _, v := range args.values {
		*result += v
	}
}

func TestFuncTask_Execute(t *testing.T) {
	var result int
	task := NewTask(sum, &sumArgs{values: []int{1, 2, 3, 4}}, &result)

	assert.NoError(t, types.ValidateTask(task))
	task.Execute()
	assert.Equal(t, 10, result)
}

func TestFuncTask_Validate(t *testing.T) {
	var result int
	var nilTask *FuncTask[*sumArgs, int]

	tests := []struct {
		name string
		task types.Task
	}{
		{"nil interface", nil},
		{"nil task pointer", nilTask},
		{"missing function", NewTask[*sumArgs, int](nil, &sumArgs{}, &result)},
		{"missing result", NewTask(sum, &sumArgs{}, nil)},
		{"missing args", NewTask(sum, nil, &result)},
		{"nil closure", TaskFunc(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, types.ValidateTask(tt.task), types.ErrInvalidArgument)
		})
	}
}

func TestFuncTask_ValueArgs(t *testing.T) {
	var result string
	task := NewTask(func(n int, out *string) {
		*out = string(rune('a' + n))
	}, 0, &result)

	// Zero values of non-pointer argument types are present
	assert.NoError(t, task.Validate())
	task.Execute()
	assert.Equal(t, "a", result)
}

func TestTaskFunc(t *testing.T) {
	called := false
	task := TaskFunc(func() { called = true })

	assert.NoError(t, types.ValidateTask(task))
	task.Execute()
	assert.True(t, called)
}
