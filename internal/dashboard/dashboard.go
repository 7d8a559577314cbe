// Package dashboard is the terminal shell: a tab bar over the screens, one active at a time.
package dashboard

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/betbot/botdash/internal/api"
	"github.com/betbot/botdash/internal/screens"
	"github.com/betbot/botdash/pkg/sigchan"
)

var log = logrus.WithField("module", "dashboard")

// Dashboard 终端 UI
type Dashboard struct {
	set  *screens.Set
	opts Options

	updates *sigchan.Chan

	mu          sync.Mutex
	program     *tea.Program
	programDone chan struct{}
}

// New 创建看板
func New(set *screens.Set, opts Options) *Dashboard {
	return &Dashboard{
		set:         set,
		opts:        opts,
		updates:     sigchan.New(1),
		programDone: make(chan struct{}),
	}
}

// IsTerminal stdout 是否为终端
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Run 阻塞运行 TUI，直到用户退出或 ctx 结束。stdout 不是终端时退化为 RunHeadless。
func (d *Dashboard) Run(ctx context.Context) error {
	if !IsTerminal() {
		log.Info("stdout is not a terminal, running headless")
		return d.RunHeadless(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go d.forward(ctx)

	d.mu.Lock()
	if d.program != nil {
		d.mu.Unlock()
		return fmt.Errorf("dashboard already running")
	}
	m := newModel(ctx, d.set, d.updates.C(), d.opts)
	d.program = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	program := d.program
	d.mu.Unlock()

	defer func() {
		d.set.UnmountAll()
		close(d.programDone)
	}()

	_, err := program.Run()
	if err != nil && ctx.Err() != nil {
		// ctx 结束导致的退出不算错误
		return nil
	}
	return err
}

// Stop 退出 TUI 并等待 Run 返回（最多 1s）
func (d *Dashboard) Stop() {
	d.mu.Lock()
	program := d.program
	d.mu.Unlock()

	if program == nil {
		d.set.UnmountAll()
		return
	}
	program.Quit()
	select {
	case <-d.programDone:
	case <-time.After(time.Second):
		log.Warn("dashboard did not exit within 1s")
	}
}

// forward 把各个 store 的变更合并成一个重绘信号
func (d *Dashboard) forward(ctx context.Context) {
	set := d.set
	for {
		select {
		case <-ctx.Done():
			return
		case <-set.Trading.Store().Changed():
		case <-set.Positions.Store().Changed():
		case <-set.Bots.ListStore().Changed():
		case <-set.Bots.DetailStore().Changed():
		case <-set.Intelligence.Store().Changed():
		case <-set.Intelligence.NewsStore().Changed():
		}
		d.updates.Emit()
	}
}

// RunHeadless 挂载所有页面并把每次变更记录到日志，用于非终端环境（CI、重定向输出）
func (d *Dashboard) RunHeadless(ctx context.Context) error {
	set := d.set
	for _, sc := range set.All() {
		sc.Mount(ctx)
	}
	defer set.UnmountAll()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-set.Trading.Store().Changed():
			v := set.Trading.Store().View()
			if v.Err != nil {
				log.Warnf("trading status: %s", api.UserMessage(v.Err))
			} else if v.HasSnapshot {
				log.Infof("trading status #%d: balance=%s pl=%s positions=%d",
					v.Seq, v.Snapshot.Account.Balance, v.Snapshot.Account.UnrealizedPL, len(v.Snapshot.Positions))
			}
		case <-set.Positions.Store().Changed():
			v := set.Positions.Store().View()
			if v.HasSnapshot && v.Err == nil {
				log.Infof("positions #%d: %d open", v.Seq, len(v.Snapshot.Positions))
			}
		case <-set.Bots.ListStore().Changed():
			v := set.Bots.ListStore().View()
			if v.Err != nil {
				log.Warnf("bots: %s", api.UserMessage(v.Err))
			} else if v.HasSnapshot {
				running := 0
				for _, b := range v.Snapshot.Bots {
					if b.Running {
						running++
					}
				}
				log.Infof("bots #%d: %d total, %d running", v.Seq, len(v.Snapshot.Bots), running)
			}
		case <-set.Bots.DetailStore().Changed():
			if st, ok := set.Bots.SelectedStatus(); ok {
				log.Debugf("bot %s: trades=%d win_rate=%.1f%%", set.Bots.Selected(), st.Performance.TotalTrades, st.Performance.WinRate())
			}
		case <-set.Intelligence.Store().Changed():
			v := set.Intelligence.Store().View()
			if v.Err != nil {
				log.Warnf("market intelligence: %s", api.UserMessage(v.Err))
			} else if v.HasSnapshot {
				log.Infof("market intelligence #%d: updated %s, next %s", v.Seq, v.Snapshot.Timestamp, v.Snapshot.NextUpdate)
			}
		case <-set.Intelligence.NewsStore().Changed():
		}
	}
}
