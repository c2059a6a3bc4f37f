// Copyright 2026 ProductShot Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package testutil 提供 productshot 测试的共享工具和辅助函数。

# 核心能力

  - 上下文辅助: TestContext，自动注册 Cleanup 防止泄漏
  - 断言工具: AssertErrorCode，按 types.ErrorCode 断言错误链
  - 数据工具: MustJSON

# 子包

  - testutil/mocks: MockProvider（聊天补全）、MockImageProvider（图像生成）、
    MockBackend（可注入故障的对象存储），均支持 Builder 模式与调用记录
  - testutil/fixtures: 运行时编码的小尺寸 PNG/JPEG 与 ChatResponse 样例

# 使用示例

	ctx := testutil.TestContext(t)
	provider := mocks.NewMockProvider().WithResponse("a glossy red sneaker")
	resp, err := provider.Completion(ctx, req)
	require.NoError(t, err)
*/
package testutil
