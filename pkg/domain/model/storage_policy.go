/*
 * @Description: 存储策略模型
 * @Author: 星河
 * @Date: 2025-04-02 11:25:09
 * @LastEditTime: 2025-07-03 16:48:22
 * @LastEditors: 星河
 */
package model

import "github.com/xinghe-v/xinghe-video/pkg/constant"

// StoragePolicy 描述最终视频文件落地的存储后端。
// local 类型只使用 BasePath；云存储类型使用 Server/BucketName/AccessKey/SecretKey，
// BasePath 作为对象键前缀。
type StoragePolicy struct {
	Name       string                     `json:"name"`
	Type       constant.StoragePolicyType `json:"type"`
	Server     string                     `json:"server"`
	BucketName string                     `json:"bucket_name"`
	AccessKey  string                     `json:"access_key"`
	SecretKey  string                     `json:"secret_key"`
	BasePath   string                     `json:"base_path"`
	MaxSize    int64                      `json:"max_size"`
}
