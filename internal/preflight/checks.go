package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-redis/redis"
	"golang.org/x/sys/unix"

	"github.com/gbarton/yt4kids/internal/config"
	"github.com/gbarton/yt4kids/internal/deps"
)

// MinFreeBytes is the free space a download attempt needs on the storage volume.
const MinFreeBytes uint64 = 1 << 30

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace fails when the volume holding path has less than minFree bytes available.
func CheckFreeSpace(name, path string, minFree uint64) Result {
	usage := StorageUsage(path)
	if usage.Err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, usage.Err)}
	}
	if usage.Free < minFree {
		return Result{
			Name:   name,
			Detail: fmt.Sprintf("%s free, need at least %s", humanize.IBytes(usage.Free), humanize.IBytes(minFree)),
		}
	}
	return Result{Name: name, Passed: true, Detail: usage.Detail()}
}

// CheckSystemDeps evaluates the external binaries for the given config.
// Both the daemon and the CLI status command use this so the requirement
// list lives in one place.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(cfg))
}

// CheckRedis pings the configured Redis mirror. Disabled mirrors pass.
func CheckRedis(ctx context.Context, cfg config.Notifications) Result {
	const name = "Redis"

	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}

	timeout := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: timeout,
		ReadTimeout: timeout,
		MaxRetries:  0,
	})
	defer client.Close()

	if err := client.Ping().Err(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", addr, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", addr)}
}
