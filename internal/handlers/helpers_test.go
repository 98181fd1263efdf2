package handlers

import (
	"context"
	"strconv"
)

func jsonID(id uint64) string { return strconv.FormatUint(id, 10) }

func req0ctx() context.Context { return context.Background() }
