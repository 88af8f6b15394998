/*
 * @Description: 程序入口
 * @Author: 星河
 * @Date: 2025-03-15 19:05:12
 * @LastEditTime: 2025-08-28 23:12:30
 * @LastEditors: 星河
 */
package main

import (
	"log"

	"github.com/xinghe-v/xinghe-video/cmd/server"
)

func main() {
	if err := server.Run(); err != nil {
		log.Fatalf("服务启动失败: %v", err)
	}
}
