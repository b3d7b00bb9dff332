package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse 上游响应无法识别
var ErrMalformedResponse = errors.New("上游响应格式无法识别")

// unwrap 从上游响应中取出载荷
//
// 同一接口可能返回以下任意形态，统一在此归一化：
//
//	X
//	{"data": X}
//	{"<key>": X}
//	{"data": {"<key>": X}}
//
// X 为对象或数组；其余形态返回 ErrMalformedResponse。
func unwrap(body []byte, key string) (json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	switch {
	case len(body) == 0:
		return nil, ErrMalformedResponse
	case body[0] == '[':
		return body, nil
	case body[0] != '{':
		return nil, ErrMalformedResponse
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if data, ok := obj["data"]; ok {
		data = bytes.TrimSpace(data)
		if len(data) == 0 || bytes.Equal(data, []byte("null")) {
			return nil, ErrMalformedResponse
		}
		if data[0] == '{' {
			var inner map[string]json.RawMessage
			if err := json.Unmarshal(data, &inner); err == nil {
				if v, ok := inner[key]; ok && isComposite(v) {
					return v, nil
				}
			}
			return data, nil
		}
		if data[0] == '[' {
			return data, nil
		}
		return nil, ErrMalformedResponse
	}

	if v, ok := obj[key]; ok && isComposite(v) {
		return v, nil
	}
	return body, nil
}

// decode 归一化后解码到 out
func decode(body []byte, key string, out any) error {
	raw, err := unwrap(body, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func isComposite(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && (v[0] == '{' || v[0] == '[')
}

// errorMessage 从错误响应体中提取可读消息
// 支持 {"message": "..."}、{"error": "..."}、{"error": {"message": "..."}}
func errorMessage(body []byte) string {
	var env struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	if s := strings.TrimSpace(env.Message); s != "" {
		return s
	}
	if len(env.Error) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(env.Error, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Error, &nested); err == nil {
		return strings.TrimSpace(nested.Message)
	}
	return ""
}
