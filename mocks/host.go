package mocks

import (
	"context"

	"github.com/questx-lab/poolwidget/internal/domain/safehost"
	"github.com/stretchr/testify/mock"
)

type Host struct {
	mock.Mock
}

func (h *Host) SendTransactions(arg1 context.Context, arg2 []safehost.Call) (string, error) {
	args := h.Called(arg1, arg2)
	return args.String(0), args.Error(1)
}

func (h *Host) AddListeners(arg1 safehost.Listeners) {
	h.Called(arg1)
}

func (h *Host) RemoveListeners() {
	h.Called()
}
