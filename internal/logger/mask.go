package logger

import "strings"

// MaskBucket keeps the first two characters of a bucket name.
func MaskBucket(bucket string) string {
	if strings.TrimSpace(bucket) == "" {
		return "bucket:****"
	}
	r := []rune(bucket)
	if len(r) <= 4 {
		return "****"
	}
	return string(r[:2]) + "****"
}

// MaskKey keeps at most six characters of the key's directory part and the
// file extension: "products/original/abc.png" becomes "produc/****.png".
func MaskKey(key string) string {
	if strings.TrimSpace(key) == "" {
		return "key:****"
	}
	r := []rune(key)
	end := len(r)
	if slash := strings.LastIndex(key, "/"); slash > 0 {
		end = len([]rune(key[:slash]))
	}
	if end > 6 {
		end = 6
	}
	return string(r[:end]) + "/****" + extension(key)
}

// MaskFilename keeps the first two characters and the extension.
func MaskFilename(name string) string {
	if strings.TrimSpace(name) == "" {
		return "name:****"
	}
	r := []rune(name)
	if len(r) <= 4 {
		return "****"
	}
	return string(r[:2]) + "****" + extension(name)
}

func extension(s string) string {
	if dot := strings.LastIndex(s, "."); dot >= 0 {
		return s[dot:]
	}
	return ""
}
