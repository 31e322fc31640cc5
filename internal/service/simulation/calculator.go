// Package simulation 编排一次计算：打开工作簿会话、写入情景、读取结果、关闭会话
package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JeeerryZ/simuladordre/internal/config"
	"github.com/JeeerryZ/simuladordre/internal/mapping"
	"github.com/JeeerryZ/simuladordre/internal/model"
	"github.com/JeeerryZ/simuladordre/internal/store"
	"github.com/JeeerryZ/simuladordre/internal/workbook"
	"github.com/JeeerryZ/simuladordre/internal/workbook/demo"
)

// 计算阶段
const (
	StageOpen   = "open"
	StageLayout = "layout"
	StageWrite  = "write"
	StageRead   = "read"
	StageClose  = "close"
)

// UpstreamError 工作簿后端调用失败
type UpstreamError struct {
	Stage string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("workbook %s: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Options 计算选项
type Options struct {
	InputSheet  string
	InputRange  string
	Layout      mapping.LayoutCheck
	Outputs     []mapping.OutputCell
	Charts      []mapping.ChartRange
	Concurrency int
}

// OptionsFromConfig 由工作簿配置生成选项
//
// 使用演示工作簿且未配置标签校验时，启用演示工作簿自带的标签。
func OptionsFromConfig(w config.WorkbookConfig) Options {
	layout := w.LayoutCheck()
	if w.Backend == config.BackendLocal && w.TemplatePath == "" && !layout.Enabled() {
		layout = demo.LayoutCheck()
	}
	return Options{
		InputSheet:  w.InputSheet,
		InputRange:  w.InputRange,
		Layout:      layout,
		Outputs:     w.Outputs(),
		Charts:      w.ChartRanges(),
		Concurrency: w.Concurrency,
	}
}

func (o Options) withDefaults() Options {
	if o.InputSheet == "" {
		o.InputSheet = mapping.SheetConcession
	}
	if o.InputRange == "" {
		o.InputRange = mapping.DefaultInputRange
	}
	if len(o.Outputs) == 0 {
		o.Outputs = mapping.DefaultOutputCells()
	}
	if o.Charts == nil {
		o.Charts = mapping.DefaultChartRanges()
	}
	if o.Layout.Sheet == "" {
		o.Layout.Sheet = o.InputSheet
	}
	return o
}

// Calculator 计算服务
//
// 每次计算独占一个新会话，结束时无论成败都会关闭；并发计算互不共享状态。
type Calculator struct {
	opener workbook.Opener
	opts   Options
	runs   store.RunLog
	logger *zap.Logger

	now   func() time.Time
	newID func() string
}

// New 创建计算服务，runs 可为 nil（不记录运行日志）
func New(opener workbook.Opener, opts Options, runs store.RunLog, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{
		opener: opener,
		opts:   opts.withDefaults(),
		runs:   runs,
		logger: logger.Named("simulation"),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// Backend 工作簿后端名称
func (c *Calculator) Backend() string { return c.opener.Name() }

// Calculate 执行一次计算
//
// 校验失败返回 model.FieldErrors；布局不一致返回包装 mapping.ErrLayoutMismatch 的错误；
// 后端失败返回 *UpstreamError。
func (c *Calculator) Calculate(ctx context.Context, in *model.ScenarioInput) (out *model.Output, err error) {
	if in == nil {
		return nil, model.FieldErrors{"habitantes": "Informe o número de habitantes"}
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := mapping.CheckRange(c.opts.InputRange, len(mapping.InputRows)); err != nil {
		return nil, err
	}

	runID := c.newID()
	started := c.now()
	logger := c.logger.With(zap.String("run_id", runID), zap.String("backend", c.opener.Name()))
	c.startRun(ctx, logger, runID, started)
	defer func() {
		c.finishRun(logger, runID, started, err)
	}()

	logger.Debug("calculation started")

	sess, err := c.opener.Open(ctx)
	if err != nil {
		return nil, &UpstreamError{Stage: StageOpen, Err: err}
	}
	defer func() {
		// 请求上下文可能已取消，关闭会话使用独立的超时
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		if cerr := sess.Close(closeCtx); cerr != nil {
			logger.Warn("close workbook session failed", zap.Error(cerr))
		}
	}()

	if err := c.opts.Layout.Verify(ctx, sess); err != nil {
		if errors.Is(err, mapping.ErrLayoutMismatch) {
			return nil, err
		}
		return nil, &UpstreamError{Stage: StageLayout, Err: err}
	}

	if err := sess.WriteRange(ctx, c.opts.InputSheet, c.opts.InputRange, mapping.InputValues(in)); err != nil {
		return nil, &UpstreamError{Stage: StageWrite, Err: err}
	}

	out, err = mapping.ReadOutputs(ctx, sess, mapping.OutputOptions{
		Cells:       c.opts.Outputs,
		Charts:      c.opts.Charts,
		Concurrency: c.opts.Concurrency,
	})
	if err != nil {
		return nil, &UpstreamError{Stage: StageRead, Err: err}
	}
	return out, nil
}

// CheckLayout 只做布局校验：静态区域检查 + 标签比对，不写入任何值
func (c *Calculator) CheckLayout(ctx context.Context) error {
	if err := mapping.CheckRange(c.opts.InputRange, len(mapping.InputRows)); err != nil {
		return err
	}
	if !c.opts.Layout.Enabled() {
		return nil
	}

	sess, err := c.opener.Open(ctx)
	if err != nil {
		return &UpstreamError{Stage: StageOpen, Err: err}
	}
	defer func() {
		if cerr := sess.Close(context.WithoutCancel(ctx)); cerr != nil {
			c.logger.Warn("close workbook session failed", zap.Error(cerr))
		}
	}()

	if err := c.opts.Layout.Verify(ctx, sess); err != nil {
		if errors.Is(err, mapping.ErrLayoutMismatch) {
			return err
		}
		return &UpstreamError{Stage: StageLayout, Err: err}
	}
	return nil
}

func (c *Calculator) startRun(ctx context.Context, logger *zap.Logger, id string, started time.Time) {
	if c.runs == nil {
		return
	}
	if err := c.runs.StartRun(ctx, id, c.opener.Name(), started); err != nil {
		logger.Warn("record run start failed", zap.Error(err))
	}
}

func (c *Calculator) finishRun(logger *zap.Logger, id string, started time.Time, runErr error) {
	completed := c.now()
	fields := []zap.Field{zap.Duration("duration", completed.Sub(started))}
	if runErr != nil {
		logger.Warn("calculation failed", append(fields, zap.Error(runErr))...)
	} else {
		logger.Info("calculation completed", fields...)
	}

	if c.runs == nil {
		return
	}
	if err := c.runs.FinishRun(context.Background(), id, completed, runErr); err != nil {
		logger.Warn("record run finish failed", zap.Error(err))
	}
}
