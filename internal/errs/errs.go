package errs

import (
	"errors"
	"fmt"
)

// 错误分类哨兵，调用方用 errors.Is 判断
var (
	ErrValidation = errors.New("参数校验失败")
	ErrNotFound   = errors.New("记录不存在")
	ErrStorage    = errors.New("存储异常")
	ErrFeedFetch  = errors.New("拉取榜单失败")
)

// Kind 错误类别（日志、导入结果、HTTP 状态码映射共用）
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindStorage    Kind = "storage"
	KindFeedFetch  Kind = "feed_fetch"
	KindUnknown    Kind = "unknown"
)

func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Storage 包装底层存储错误；已分类的错误原样返回，避免 hook 抛出的校验错误被吞成存储错误
func Storage(err error, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrStorage, action, err)
}

func FeedFetch(platform string, err error) error {
	return fmt.Errorf("%w(%s): %v", ErrFeedFetch, platform, err)
}

// KindOf 返回 err 的类别，nil 返回空串
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrStorage):
		return KindStorage
	case errors.Is(err, ErrFeedFetch):
		return KindFeedFetch
	default:
		return KindUnknown
	}
}
