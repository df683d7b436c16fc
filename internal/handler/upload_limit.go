package handler

import "strconv"

const DefaultMaxIngestBytes int64 = 32 * 1024 * 1024

func formatUploadLimit(bytes int64) string {
	const mb = 1024 * 1024
	if bytes <= 0 {
		return "0MB"
	}
	value := bytes / mb
	if value <= 0 {
		return strconv.FormatInt(bytes/1024+1, 10) + "KB"
	}
	return strconv.FormatInt(value, 10) + "MB"
}
