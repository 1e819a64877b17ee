// Package probe decides whether the monitored services are up by running one
// short-lived external command per service.
package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DGHeroin/HostStats/logging"
	"github.com/DGHeroin/HostStats/status"
	"golang.org/x/sync/errgroup"
)

var ErrUnknownService = errors.New("unknown service")

const (
	Strapi      = "strapi"
	Cloudflared = "cloudflared"
	SSH         = "ssh"
)

// Matcher reports whether command output means the service is up.
type Matcher func(output string) bool

func ContainsAll(subs ...string) Matcher {
	return func(output string) bool {
		for _, s := range subs {
			if !strings.Contains(output, s) {
				return false
			}
		}
		return true
	}
}

func TrimmedEquals(want string) Matcher {
	return func(output string) bool {
		return strings.TrimSpace(output) == want
	}
}

type Service struct {
	Key     string
	Process string
	Link    string
	Command Command
	Match   Matcher
}

var defaultLinks = map[string]string{
	Strapi:      "http://localhost:1337/admin",
	Cloudflared: "https://dash.cloudflare.com/",
	SSH:         "ssh://localhost:22",
}

// Services returns the fixed service registry. links overrides the reference
// link per service key.
func Services(tunnelContainer string, links map[string]string) []Service {
	link := func(key string) string {
		if l := links[key]; l != "" {
			return l
		}
		return defaultLinks[key]
	}
	return []Service{
		{
			Key:     Strapi,
			Process: "pm2",
			Link:    link(Strapi),
			Command: Command{Name: "pm2", Args: []string{"show", Strapi}, Combined: true},
			Match:   ContainsAll(Strapi, "online"),
		},
		{
			Key:     Cloudflared,
			Process: "docker",
			Link:    link(Cloudflared),
			Command: Command{Name: "docker", Args: []string{"ps", "--format", "{{.Names}}"}},
			Match:   ContainsAll(tunnelContainer),
		},
		{
			Key:     SSH,
			Process: "systemd",
			Link:    link(SSH),
			Command: Command{Name: "systemctl", Args: []string{"is-active", SSH}},
			Match:   TrimmedEquals("active"),
		},
	}
}

type Prober struct {
	runner   Runner
	timeout  time.Duration
	services []Service
	logger   *logging.Logger
}

func New(runner Runner, timeout time.Duration, services []Service, logger *logging.Logger) *Prober {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Prober{
		runner:   runner,
		timeout:  timeout,
		services: services,
		logger:   logger,
	}
}

func (p *Prober) Services() []Service {
	return p.services
}

func (p *Prober) lookup(key string) (Service, error) {
	for _, svc := range p.services {
		if svc.Key == key {
			return svc, nil
		}
	}
	return Service{}, fmt.Errorf("%w: %s", ErrUnknownService, key)
}

// Check runs the probe for key. Every failure, including an unknown key or a
// timeout, is reported as down.
func (p *Prober) Check(ctx context.Context, key string) bool {
	svc, err := p.lookup(key)
	if err != nil {
		p.logger.Warn("probe lookup failed", "error", err)
		return false
	}
	return p.check(ctx, svc)
}

func (p *Prober) check(ctx context.Context, svc Service) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	out, err := p.runner.Run(ctx, svc.Command)
	if err != nil {
		p.logger.Debug("probe failed",
			"service", svc.Key,
			"command", svc.Command.String(),
			"elapsed", time.Since(start),
			"error", err)
		return false
	}
	up := svc.Match != nil && svc.Match(out)
	p.logger.Debug("probe done", "service", svc.Key, "up", up, "elapsed", time.Since(start))
	return up
}

// CheckAll probes every registered service concurrently and returns the
// results in registry order.
func (p *Prober) CheckAll(ctx context.Context) status.ServiceStats {
	result := make(status.ServiceStats, len(p.services))
	var g errgroup.Group
	for i, svc := range p.services {
		i, svc := i, svc
		g.Go(func() error {
			result[i] = status.ServiceStatus{
				Key:     svc.Key,
				Status:  p.check(ctx, svc),
				Process: svc.Process,
				Link:    svc.Link,
			}
			return nil
		})
	}
	_ = g.Wait()
	return result
}
