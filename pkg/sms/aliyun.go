package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dysmsapi "github.com/alibabacloud-go/dysmsapi-20170525/v3/client"
	util "github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/alibabacloud-go/tea/tea"
)

const (
	aliyunEndpoint       = "dysmsapi.aliyuncs.com"
	aliyunDefaultTimeout = 5 * time.Second
)

// AliyunConfig 阿里云短信配置
type AliyunConfig struct {
	AccessKeyID     string
	AccessKeySecret string
	SignName        string
	Endpoint        string // 默认 dysmsapi.aliyuncs.com
}

// AliyunSender 阿里云短信发送器
type AliyunSender struct {
	client   *dysmsapi.Client
	signName string
}

// NewAliyunSender 创建阿里云短信发送器
func NewAliyunSender(cfg *AliyunConfig) (*AliyunSender, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = aliyunEndpoint
	}
	client, err := dysmsapi.NewClient(&openapi.Config{
		AccessKeyId:     tea.String(cfg.AccessKeyID),
		AccessKeySecret: tea.String(cfg.AccessKeySecret),
		Endpoint:        tea.String(endpoint),
	})
	if err != nil {
		return nil, fmt.Errorf("init aliyun sms client: %w", err)
	}
	return &AliyunSender{client: client, signName: cfg.SignName}, nil
}

// Send 发送模板短信，ctx 的截止时间换算为 SDK 的读超时
func (s *AliyunSender) Send(ctx context.Context, phone, templateCode string, params map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	param, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal sms params: %w", err)
	}

	resp, err := s.client.SendSmsWithOptions(&dysmsapi.SendSmsRequest{
		PhoneNumbers:  tea.String(phone),
		SignName:      tea.String(s.signName),
		TemplateCode:  tea.String(templateCode),
		TemplateParam: tea.String(string(param)),
	}, runtimeOptions(ctx))
	if err != nil {
		return fmt.Errorf("aliyun send sms: %w", err)
	}
	return checkSendResponse(resp)
}

func runtimeOptions(ctx context.Context) *util.RuntimeOptions {
	timeout := aliyunDefaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left > 0 && left < timeout {
			timeout = left
		}
	}
	ms := int(timeout.Milliseconds())
	return &util.RuntimeOptions{
		ConnectTimeout: tea.Int(ms),
		ReadTimeout:    tea.Int(ms),
	}
}

// checkSendResponse 网关返回 Code 为 OK 才算成功
func checkSendResponse(resp *dysmsapi.SendSmsResponse) error {
	if resp == nil || resp.Body == nil {
		return fmt.Errorf("aliyun send sms: empty response")
	}
	body := resp.Body
	if tea.StringValue(body.Code) == "OK" {
		return nil
	}
	return fmt.Errorf("aliyun send sms: code=%s message=%s request_id=%s",
		tea.StringValue(body.Code), tea.StringValue(body.Message), tea.StringValue(body.RequestId))
}
