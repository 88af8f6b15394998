/*
 * @Description: 存储策略类型常量
 * @Author: 星河
 * @Date: 2025-04-02 11:18:55
 * @LastEditTime: 2025-06-30 17:02:10
 * @LastEditors: 星河
 */
package constant

// StoragePolicyType 是存储策略的驱动类型。
type StoragePolicyType string

const (
	// PolicyTypeLocal 本地磁盘存储
	PolicyTypeLocal StoragePolicyType = "local"
	// PolicyTypeS3 AWS S3 及兼容对象存储
	PolicyTypeS3 StoragePolicyType = "s3"
	// PolicyTypeAliOSS 阿里云 OSS
	PolicyTypeAliOSS StoragePolicyType = "ali_oss"
	// PolicyTypeTencentCOS 腾讯云 COS
	PolicyTypeTencentCOS StoragePolicyType = "tencent_cos"
)
