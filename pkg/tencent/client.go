package tencent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lyricsync/pkg/logging"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/regions"
	tmt "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tmt/v20180321"
)

var logger = logging.Component("tencent")

// Client 腾讯云机器翻译
type Client struct {
	tmtClient *tmt.Client
	projectID int64
}

// NewClient 创建机器翻译客户端，region为空时使用广州
func NewClient(secretID, secretKey, region string, timeout time.Duration) (*Client, error) {
	if secretID == "" || secretKey == "" {
		return nil, errors.New("tencent secret id/key is empty")
	}
	if region == "" {
		region = regions.Guangzhou
	}

	credential := common.NewCredential(secretID, secretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.ReqMethod = "POST"
	if secs := int(timeout.Seconds()); secs > 0 {
		cpf.HttpProfile.ReqTimeout = secs
	}

	tmtClient, err := tmt.NewClient(credential, region, cpf)
	if err != nil {
		logger.Error().Err(err).Msg("new tencent client error")
		return nil, err
	}
	return &Client{tmtClient: tmtClient}, nil
}

func (c *Client) Name() string {
	return "tencent"
}

// Translate 翻译一段文本，source为空时由服务端识别
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	if source == "" {
		source = "auto"
	}
	request := tmt.NewTextTranslateRequest()
	request.SourceText = common.StringPtr(text)
	request.Source = common.StringPtr(source)
	request.Target = common.StringPtr(target)
	request.ProjectId = common.Int64Ptr(c.projectID)

	response, err := c.tmtClient.TextTranslateWithContext(ctx, request)
	if err != nil {
		return "", fmt.Errorf("tencent translate failed: %w", err)
	}
	if response.Response == nil || response.Response.TargetText == nil {
		return "", errors.New("tencent returned an empty translation")
	}
	return *response.Response.TargetText, nil
}
