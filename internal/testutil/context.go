package testutil

import (
	"context"

	"github.com/questx-lab/poolwidget/config"
	"github.com/questx-lab/poolwidget/pkg/logger"
	"github.com/questx-lab/poolwidget/pkg/xcontext"
)

func MockContext() context.Context {
	ctx := context.Background()
	ctx = xcontext.WithLogger(ctx, logger.NewNopLogger())
	ctx = xcontext.WithConfigs(ctx, config.Default())
	return ctx
}
