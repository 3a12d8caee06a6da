package errors

import "errors"

// ErrLockNotAcquired 同一用户同一平台已有拉取在进行
var ErrLockNotAcquired = errors.New("该平台正在同步中，请稍后重试")

// ErrUpstreamStatus 预约平台返回非成功状态码
var ErrUpstreamStatus = errors.New("预约平台响应异常")
