package logger

import "go.uber.org/zap"

// Option 日志构造选项
type Option = zap.Option

// AddCaller 输出调用位置
func AddCaller() Option {
	return zap.AddCaller()
}

// AddCallerSkip 跳过封装层的调用栈
func AddCallerSkip(skip int) Option {
	return zap.AddCallerSkip(skip)
}

// AddStacktrace 指定级别及以上输出堆栈
func AddStacktrace(level Level) Option {
	return zap.AddStacktrace(toZapLevel(level))
}

// Fields 为日志附加固定字段
func Fields(fields ...Field) Option {
	return zap.Fields(fields...)
}
