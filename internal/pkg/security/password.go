/*
 * @Description: 密码哈希与校验
 * @Author: 星河
 * @Date: 2025-03-18 14:22:07
 * @LastEditTime: 2025-03-18 14:22:07
 * @LastEditors: 星河
 */
package security

import "golang.org/x/crypto/bcrypt"

// HashPassword 使用 bcrypt 对明文密码进行哈希
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword 校验明文密码与哈希是否匹配
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
