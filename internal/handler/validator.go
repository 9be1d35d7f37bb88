package handler

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// 韩国手机号，不带连字符
var phonePattern = regexp.MustCompile(`^01[016789][0-9]{7,8}$`)

// RegisterValidators 在 gin 的校验引擎上注册自定义规则，进程启动时调用一次
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
}
