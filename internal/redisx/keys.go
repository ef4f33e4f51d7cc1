package redisx

import (
	"fmt"
	"time"
)

const (
	// Lock per job supaya worker replica tidak dobel jalan:
	// lock:job:{name}
	KeyJobLock = "lock:job:%s"
)

var TTLJobLock = 10 * time.Minute

func jobLockKey(job string) string { return fmt.Sprintf(KeyJobLock, job) }
