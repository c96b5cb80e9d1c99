package xutil

import (
	"encoding/json"
	"os"
)

// ToJsonString 转换为json字符串
func ToJsonString(v any) string {
	vv, _ := json.Marshal(v)
	return string(vv)
}

// ToJsonStringIndent 转换为json字符串，带\t格式化
func ToJsonStringIndent(v any) string {
	vv, e := json.MarshalIndent(v, "", "\t")
	if e != nil {
		ErrorIfEnableDebug("ToJsonStringIndent failed, err=[%v]", e)
		return ""
	}
	return string(vv)
}

// ReadJsonFile 读取json文件并反序列化到 v
func ReadJsonFile(filePath string, v any) error {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
