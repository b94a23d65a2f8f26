// Package remote fans the per-node invocations out over ssh, for
// multi-node runs launched without a scheduler.
package remote

import (
	"context"
	"fmt"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mlfoundry/neuronrun/log"
	"github.com/mlfoundry/neuronrun/proc"
	"github.com/mlfoundry/neuronrun/utils/iostream"
	"github.com/mlfoundry/neuronrun/utils/ssh"
	"github.com/mlfoundry/neuronrun/utils/xterm"
)

// RunAll runs each proc on its Hostname over ssh and waits for all of
// them. Any failing node cancels the rest.
func RunAll(ctx context.Context, user string, ps []proc.Proc, verboseLog bool, logDir string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	var fail int32
	for i, p := range ps {
		wg.Add(1)
		go func(i int, p proc.Proc) {
			defer wg.Done()
			t0 := time.Now()
			config := ssh.Config{
				Host: p.Hostname,
				User: user,
			}
			client, err := ssh.New(config)
			if err != nil {
				log.Errorf("#<%s> failed to connect: %v", p.Name, err)
				atomic.AddInt32(&fail, 1)
				cancel()
				return
			}
			defer client.Close()
			var redirectors []*iostream.StdWriters
			if verboseLog {
				redirectors = append(redirectors, iostream.NewXTermRedirector(p.Name, xterm.BasicColors.Choose(i)))
			}
			redirectors = append(redirectors, iostream.NewFileRedirector(path.Join(logDir, p.Name)))
			if err := client.Watch(ctx, p.Script(), redirectors); err != nil {
				log.Errorf("#<%s> exited with error: %v, took %s", p.Name, err, time.Since(t0))
				atomic.AddInt32(&fail, 1)
				cancel()
				return
			}
			log.Debugf("#<%s> finished successfully, took %s", p.Name, time.Since(t0))
		}(i, p)
	}
	wg.Wait()
	if fail != 0 {
		return fmt.Errorf("%d nodes failed", fail)
	}
	return nil
}
