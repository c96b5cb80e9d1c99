package xutil

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var argKeyPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.-]*$`)

// GetConfigFromArgs 从启动命令获取指定参数，支持 --key value 和 --key=value 两种写法
func GetConfigFromArgs(key string) (string, error) {
	return lookupArg(os.Args[1:], key)
}

func lookupArg(args []string, key string) (string, error) {
	if !argKeyPattern.MatchString(key) {
		return "", fmt.Errorf("key must match regexp: %s", argKeyPattern.String())
	}
	if len(args) == 0 {
		return "", fmt.Errorf("arg not found, there is no arg")
	}

	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		arg = strings.TrimLeft(arg, "-")

		if arg == key {
			if i+1 == len(args) {
				return "", fmt.Errorf("arg not found, value of [%s] not set", key)
			}
			return args[i+1], nil
		}

		if strings.HasPrefix(arg, key+"=") {
			return arg[len(key)+1:], nil
		}
	}

	return "", fmt.Errorf("arg not found")
}
