package services

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

// ImgurResponse Imgur API 响应结构
type ImgurResponse struct {
	Data struct {
		ID   string `json:"id"`
		Link string `json:"link"`
		Type string `json:"type"`
	} `json:"data"`
	Success bool `json:"success"`
	Status  int  `json:"status"`
}

// UploadToImgur 上传帖子配图到 Imgur，返回外链 URL
func UploadToImgur(file multipart.File, header *multipart.FileHeader) (string, error) {
	clientID := os.Getenv("IMGUR_CLIENT_ID")
	if clientID == "" {
		return "", fmt.Errorf("IMGUR_CLIENT_ID 未配置")
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("读取文件失败: %w", err)
	}

	base64Image := base64.StdEncoding.EncodeToString(fileBytes)

	var requestBody bytes.Buffer
	writer := multipart.NewWriter(&requestBody)
	if err := writer.WriteField("image", base64Image); err != nil {
		return "", fmt.Errorf("写入请求体失败: %w", err)
	}
	if err := writer.WriteField("type", "base64"); err != nil {
		return "", fmt.Errorf("写入请求体失败: %w", err)
	}
	writer.Close()

	req, err := http.NewRequest("POST", "https://api.imgur.com/3/image", &requestBody)
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+clientID)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("上传请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取响应失败: %w", err)
	}

	var imgurResp ImgurResponse
	if err := json.Unmarshal(body, &imgurResp); err != nil {
		return "", fmt.Errorf("解析响应失败: %w", err)
	}

	if !imgurResp.Success {
		return "", fmt.Errorf("Imgur 上传失败: status %d", imgurResp.Status)
	}

	return imgurResp.Data.Link, nil
}

// UploadImage 通用上传接口（未来可切换到其他服务）
// 当前默认使用 Imgur
func UploadImage(file multipart.File, header *multipart.FileHeader) (string, error) {
	return UploadToImgur(file, header)
}
